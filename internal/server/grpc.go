package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvasrpc"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// CanvasServiceServer is the server API for fundrazor.canvas.v1.CanvasService.
type CanvasServiceServer interface {
	ListCanvases(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCanvas(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CreateCanvas(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCanvas(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenameCanvas(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCanvas(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetEvents(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

var _ CanvasServiceServer = (*CanvasServer)(nil)

// unaryMethod builds a MethodDesc that decodes a Req, runs it through the
// interceptor chain and dispatches to call.
func unaryMethod[Req proto.Message](name string, newReq func() Req, call func(CanvasServiceServer, context.Context, Req) (proto.Message, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			svc := srv.(CanvasServiceServer)
			if interceptor == nil {
				return call(svc, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: canvasrpc.FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(svc, ctx, req.(Req))
			})
		},
	}
}

func newStruct() *structpb.Struct        { return &structpb.Struct{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
func newEmpty() *emptypb.Empty           { return &emptypb.Empty{} }

// canvasServiceDesc describes fundrazor.canvas.v1.CanvasService.
var canvasServiceDesc = grpc.ServiceDesc{
	ServiceName: canvasrpc.ServiceName,
	HandlerType: (*CanvasServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(canvasrpc.MethodListCanvases, newStruct, func(s CanvasServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.ListCanvases(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodGetCanvas, newString, func(s CanvasServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.GetCanvas(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodCreateCanvas, newStruct, func(s CanvasServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.CreateCanvas(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodUpdateCanvas, newStruct, func(s CanvasServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.UpdateCanvas(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodRenameCanvas, newStruct, func(s CanvasServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.RenameCanvas(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodDeleteCanvas, newString, func(s CanvasServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.DeleteCanvas(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodGetEvents, newString, func(s CanvasServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.GetEvents(ctx, in)
		}),
		unaryMethod(canvasrpc.MethodHealth, newEmpty, func(s CanvasServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
			return s.Health(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fundrazor/canvas/v1/canvas.proto",
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the CanvasService and reflection, and returns the server ready to serve.
func NewGRPCServer(cs *CanvasServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor(authToken),
		),
	)
	srv.RegisterService(&canvasServiceDesc, cs)
	reflection.Register(srv)
	return srv
}

// grpcActor reads the caller name from the x-fundrazor-actor metadata key.
func grpcActor(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get("x-fundrazor-actor"); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// canvasStruct encodes a canvas for the wire.
func canvasStruct(c *model.Canvas) (*structpb.Struct, error) {
	out, err := canvasrpc.ToStruct(c)
	return out, grpcStatusFor(err)
}

// listRequest is the Struct shape of a ListCanvases request.
type listRequest struct {
	model.CanvasFilter
}

// ListCanvases returns {"canvases": [...], "total": n}.
func (s *CanvasServer) ListCanvases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listRequest
	if err := canvasrpc.FromStruct(req, &in); err != nil {
		return nil, grpcStatusFor(&model.ValidationError{Errors: []model.FieldError{{Field: "request", Message: err.Error()}}})
	}
	canvases, total, err := s.listCanvases(ctx, in.CanvasFilter)
	if err != nil {
		return nil, grpcStatusFor(err)
	}
	out, err := canvasrpc.ToStruct(map[string]any{"canvases": canvases, "total": total})
	return out, grpcStatusFor(err)
}

// GetCanvas returns one canvas by id.
func (s *CanvasServer) GetCanvas(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	c, err := s.getCanvas(ctx, req.GetValue())
	if err != nil {
		return nil, grpcStatusFor(err)
	}
	return canvasStruct(c)
}

// CreateCanvas accepts {name, description?, canvasData?}.
func (s *CanvasServer) CreateCanvas(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createCanvasInput
	if err := canvasrpc.FromStruct(req, &in); err != nil {
		return nil, grpcStatusFor(&model.ValidationError{Errors: []model.FieldError{{Field: "request", Message: err.Error()}}})
	}
	c, err := s.createCanvas(ctx, in, grpcActor(ctx))
	if err != nil {
		return nil, grpcStatusFor(err)
	}
	return canvasStruct(c)
}

// updateRequest is updateCanvasInput plus the target id.
type updateRequest struct {
	ID string `json:"id"`
	updateCanvasInput
}

// UpdateCanvas accepts {id, canvasData, version?, name?, description?}.
func (s *CanvasServer) UpdateCanvas(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in updateRequest
	if err := canvasrpc.FromStruct(req, &in); err != nil {
		return nil, grpcStatusFor(&model.ValidationError{Errors: []model.FieldError{{Field: "request", Message: err.Error()}}})
	}
	c, err := s.updateCanvas(ctx, in.ID, in.updateCanvasInput, grpcActor(ctx))
	if err != nil {
		return nil, grpcStatusFor(err)
	}
	return canvasStruct(c)
}

type renameRequest struct {
	ID string `json:"id"`
	renameCanvasInput
}

// RenameCanvas accepts {id, name?, description?}.
func (s *CanvasServer) RenameCanvas(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in renameRequest
	if err := canvasrpc.FromStruct(req, &in); err != nil {
		return nil, grpcStatusFor(&model.ValidationError{Errors: []model.FieldError{{Field: "request", Message: err.Error()}}})
	}
	c, err := s.renameCanvas(ctx, in.ID, in.renameCanvasInput, grpcActor(ctx))
	if err != nil {
		return nil, grpcStatusFor(err)
	}
	return canvasStruct(c)
}

// DeleteCanvas removes a canvas by id.
func (s *CanvasServer) DeleteCanvas(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.deleteCanvas(ctx, req.GetValue(), grpcActor(ctx)); err != nil {
		return nil, grpcStatusFor(err)
	}
	return &emptypb.Empty{}, nil
}

// GetEvents returns {"events": [...]} for a canvas.
func (s *CanvasServer) GetEvents(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	evts, err := s.canvasEvents(ctx, req.GetValue())
	if err != nil {
		return nil, grpcStatusFor(err)
	}
	out, err := canvasrpc.ToStruct(map[string]any{"events": evts})
	return out, grpcStatusFor(err)
}

// Health returns "ok" when the store is reachable.
func (s *CanvasServer) Health(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	if err := s.health(ctx); err != nil {
		return nil, status.Errorf(codes.Unavailable, "store unreachable: %v", err)
	}
	return wrapperspb.String("ok"), nil
}
