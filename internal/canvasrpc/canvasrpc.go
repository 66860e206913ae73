// Package canvasrpc describes the fundrazor.canvas.v1.CanvasService gRPC
// surface shared by the server and the client.
//
// Messages use the protobuf well-known types: requests and responses that
// carry documents are google.protobuf.Struct values holding the same JSON
// shape as the REST API, ids travel as google.protobuf.StringValue, and
// empty results are google.protobuf.Empty.
package canvasrpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fundrazor.canvas.v1.CanvasService"

// Method names.
const (
	MethodListCanvases = "ListCanvases"
	MethodGetCanvas    = "GetCanvas"
	MethodCreateCanvas = "CreateCanvas"
	MethodUpdateCanvas = "UpdateCanvas"
	MethodRenameCanvas = "RenameCanvas"
	MethodDeleteCanvas = "DeleteCanvas"
	MethodGetEvents    = "GetEvents"
	MethodHealth       = "Health"
)

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ToStruct converts any JSON-encodable value with an object shape into a
// Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("encode struct: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes a Struct into v using its JSON field names. A nil
// Struct decodes as an empty object.
func FromStruct(s *structpb.Struct, v any) error {
	m := map[string]any{}
	if s != nil {
		m = s.AsMap()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode struct: %w", err)
	}
	return nil
}
