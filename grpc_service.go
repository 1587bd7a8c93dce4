package electy

import (
	"context"

	"google.golang.org/grpc"
)

const deliverMethod = "/electy.Election/Deliver"

// electionServer is the server API of the election service
type electionServer interface {
	Deliver(context.Context, *deliverRequest) (*deliverResponse, error)
}

var electionServiceDesc = grpc.ServiceDesc{
	ServiceName: "electy.Election",
	HandlerType: (*electionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deliver",
			Handler:    deliverHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "electy.proto",
}

func deliverHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(deliverRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(electionServer).Deliver(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: deliverMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(electionServer).Deliver(ctx, req.(*deliverRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// deliver sends envelope to the peer served by conn
func deliver(ctx context.Context, conn grpc.ClientConnInterface, envelope Envelope[string]) error {
	return conn.Invoke(ctx, deliverMethod, &deliverRequest{Envelope: envelope}, new(deliverResponse))
}
