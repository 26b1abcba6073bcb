package scope

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

const tracerName = "github.com/ftl/radarview/scope"

// tracingStreamInterceptor wraps every frame stream in a server span that lasts as long as
// the remote viewer is connected.
func tracingStreamInterceptor() grpc.StreamServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(srv any, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		method := strings.TrimPrefix(info.FullMethod, "/")
		ctx, span := tracer.Start(stream.Context(), "scope/"+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", serviceName),
			attribute.String("rpc.full_method", method),
		)

		err := handler(srv, &tracedStream{ServerStream: stream, ctx: ctx})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stream failed")
		}
		return err
	}
}

type tracedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *tracedStream) Context() context.Context {
	return s.ctx
}
