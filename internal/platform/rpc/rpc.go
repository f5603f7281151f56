// Package rpc registers JSON-shaped gRPC services. Requests and responses are
// google.protobuf.Struct messages, so services can be called with grpcurl or
// any client holding the well-known types, without generated stubs.
package rpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fekuna/omnipos-inventory-service/internal/ledgererr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Method is one unary RPC.
type Method func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Service is implemented by every handler registered through this package.
type Service interface {
	ServiceName() string
	Methods() map[string]Method
}

// Register adds svc to s under svc.ServiceName().
func Register(s grpc.ServiceRegistrar, svc Service) {
	s.RegisterService(NewServiceDesc(svc), svc)
}

func NewServiceDesc(svc Service) *grpc.ServiceDesc {
	name := svc.ServiceName()
	desc := &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*Service)(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    "omnipos/inventory/v1/inventory.proto",
	}
	for methodName, method := range svc.Methods() {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: methodName,
			Handler:    unaryHandler("/"+name+"/"+methodName, method),
		})
	}
	return desc
}

func unaryHandler(fullMethod string, method Method) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Decode unmarshals req into v through its JSON form.
func Decode(req *structpb.Struct, v any) error {
	if req == nil {
		req = &structpb.Struct{}
	}
	b, err := req.MarshalJSON()
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(b, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// Encode converts v into a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Error maps ledger errors onto gRPC status codes.
func Error(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, ledgererr.ErrInventoryNotFound),
		errors.Is(err, ledgererr.ErrLocationNotFound),
		errors.Is(err, ledgererr.ErrTransferNotFound),
		errors.Is(err, ledgererr.ErrSourceNotFound),
		errors.Is(err, ledgererr.ErrProductNotFound):
		code = codes.NotFound
	case errors.Is(err, ledgererr.ErrLocationAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, ledgererr.ErrInsufficientInventory),
		errors.Is(err, ledgererr.ErrInvalidTransferStatus),
		errors.Is(err, ledgererr.ErrSourceDisabled):
		code = codes.FailedPrecondition
	case errors.Is(err, ledgererr.ErrInvalidQuantity),
		errors.Is(err, ledgererr.ErrInvalidTransfer),
		errors.Is(err, ledgererr.ErrInvalidChange):
		code = codes.InvalidArgument
	case errors.Is(err, ledgererr.ErrLock):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// Required is the InvalidArgument error for a missing request field.
func Required(field string) error {
	return status.Errorf(codes.InvalidArgument, "%s is required", field)
}
