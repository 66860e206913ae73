package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvas"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvasrpc"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// GRPCClient implements CanvasClient using the gRPC transport. The artifact
// catalog is compiled into both ends, so catalog lookups are answered
// locally and diagrams are rendered from the fetched canvas.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string

	// Actor is sent with every call for the audit trail.
	Actor string
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// When token is non-empty it is sent as a Bearer token on every call.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{conn: conn, token: token}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// invoke calls one CanvasService method with auth and actor metadata and
// maps the resulting status onto model errors.
func (c *GRPCClient) invoke(ctx context.Context, method, id string, in, out proto.Message) error {
	var md []string
	if c.token != "" {
		md = append(md, "authorization", "Bearer "+c.token)
	}
	if c.Actor != "" {
		md = append(md, "x-fundrazor-actor", c.Actor)
	}
	if len(md) > 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, md...)
	}
	if err := c.conn.Invoke(ctx, canvasrpc.FullMethod(method), in, out); err != nil {
		return fromStatus(err, method, id)
	}
	return nil
}

// fromStatus converts a gRPC status error into the matching model error.
func fromStatus(err error, method, id string) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return &model.NotFoundError{Kind: "canvas", ID: id}
	case codes.Aborted:
		ce := &model.ConflictError{ID: id}
		for _, d := range st.Details() {
			s, ok := d.(*structpb.Struct)
			if !ok {
				continue
			}
			var versions struct {
				Expected int `json:"expected"`
				Actual   int `json:"actual"`
			}
			if canvasrpc.FromStruct(s, &versions) == nil {
				ce.Expected, ce.Actual = versions.Expected, versions.Actual
			}
		}
		return ce
	case codes.InvalidArgument:
		return &model.ValidationError{Errors: []model.FieldError{{Field: "request", Message: st.Message()}}}
	case codes.Unavailable, codes.DeadlineExceeded:
		return &model.NetworkError{Op: method, Err: err}
	}
	return err
}

// --- Canvas CRUD ---

func (c *GRPCClient) ListCanvases(ctx context.Context, req *ListCanvasesRequest) (*ListCanvasesResponse, error) {
	if req == nil {
		req = &ListCanvasesRequest{}
	}
	in, err := canvasrpc.ToStruct(req)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := c.invoke(ctx, canvasrpc.MethodListCanvases, "", in, out); err != nil {
		return nil, err
	}
	var resp ListCanvasesResponse
	if err := canvasrpc.FromStruct(out, &resp); err != nil {
		return nil, err
	}
	if resp.Canvases == nil {
		resp.Canvases = []*model.Canvas{}
	}
	return &resp, nil
}

func (c *GRPCClient) GetCanvas(ctx context.Context, id string) (*model.Canvas, error) {
	return c.canvasCall(ctx, canvasrpc.MethodGetCanvas, id, wrapperspb.String(id))
}

func (c *GRPCClient) CreateCanvas(ctx context.Context, req *CreateCanvasRequest) (*model.Canvas, error) {
	in, err := canvasrpc.ToStruct(req)
	if err != nil {
		return nil, err
	}
	return c.canvasCall(ctx, canvasrpc.MethodCreateCanvas, "", in)
}

func (c *GRPCClient) UpdateCanvas(ctx context.Context, id string, req *UpdateCanvasRequest) (*model.Canvas, error) {
	in, err := canvasrpc.ToStruct(struct {
		ID string `json:"id"`
		*UpdateCanvasRequest
	}{id, req})
	if err != nil {
		return nil, err
	}
	return c.canvasCall(ctx, canvasrpc.MethodUpdateCanvas, id, in)
}

// SaveCanvasData replaces the canvas document, guarded by version.
func (c *GRPCClient) SaveCanvasData(ctx context.Context, id string, data model.CanvasData, version int) (*model.Canvas, error) {
	return c.UpdateCanvas(ctx, id, &UpdateCanvasRequest{CanvasData: data, Version: version})
}

func (c *GRPCClient) RenameCanvas(ctx context.Context, id string, req *RenameCanvasRequest) (*model.Canvas, error) {
	in, err := canvasrpc.ToStruct(struct {
		ID string `json:"id"`
		*RenameCanvasRequest
	}{id, req})
	if err != nil {
		return nil, err
	}
	return c.canvasCall(ctx, canvasrpc.MethodRenameCanvas, id, in)
}

func (c *GRPCClient) DeleteCanvas(ctx context.Context, id string) error {
	return c.invoke(ctx, canvasrpc.MethodDeleteCanvas, id, wrapperspb.String(id), &emptypb.Empty{})
}

func (c *GRPCClient) canvasCall(ctx context.Context, method, id string, in proto.Message) (*model.Canvas, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, method, id, in, out); err != nil {
		return nil, err
	}
	var cv model.Canvas
	if err := canvasrpc.FromStruct(out, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

// --- History and rendering ---

func (c *GRPCClient) GetEvents(ctx context.Context, canvasID string) ([]*model.Event, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, canvasrpc.MethodGetEvents, canvasID, wrapperspb.String(canvasID), out); err != nil {
		return nil, err
	}
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := canvasrpc.FromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *GRPCClient) GetDiagram(ctx context.Context, id, format string) (string, error) {
	cv, err := c.GetCanvas(ctx, id)
	if err != nil {
		return "", err
	}
	out, err := canvas.RenderDiagram(format, cv.Name, cv.CanvasData, catalog.Default)
	if err != nil {
		return "", &model.ValidationError{Errors: []model.FieldError{{Field: "format", Message: err.Error()}}}
	}
	return out, nil
}

// --- Artifact catalog ---

func (c *GRPCClient) ListArtifacts(_ context.Context, artifactType model.ArtifactType) ([]*model.Artifact, error) {
	if artifactType == "" {
		return catalog.Default.All(), nil
	}
	if !artifactType.IsValid() {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "type", Message: "unknown artifact type " + string(artifactType)}}}
	}
	list := catalog.Default.ArtifactsByType(artifactType)
	if list == nil {
		list = []*model.Artifact{}
	}
	return list, nil
}

func (c *GRPCClient) GetArtifact(_ context.Context, id string) (*model.Artifact, error) {
	a, ok := catalog.Default.ArtifactByID(id)
	if !ok {
		return nil, &model.NotFoundError{Kind: "artifact", ID: id}
	}
	return a, nil
}

func (c *GRPCClient) SoftwareCategories(_ context.Context) ([]SoftwareCategory, error) {
	groups := catalog.Default.SoftwareByCategory()
	out := make([]SoftwareCategory, 0, len(groups))
	for _, name := range catalog.Default.Categories() {
		out = append(out, SoftwareCategory{Name: name, Artifacts: groups[name]})
	}
	return out, nil
}

// --- Health ---

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.invoke(ctx, canvasrpc.MethodHealth, "", &emptypb.Empty{}, out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
