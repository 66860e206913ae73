package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestArtifactType_IsValid(t *testing.T) {
	for _, tc := range []struct {
		typ  ArtifactType
		want bool
	}{
		{ArtifactStage, true},
		{ArtifactRole, true},
		{ArtifactSoftware, true},
		{ArtifactDocument, true},
		{ArtifactMetric, true},
		{ArtifactProcess, true},
		{ArtifactType(""), false},
		{ArtifactType("bogus"), false},
	} {
		if got := tc.typ.IsValid(); got != tc.want {
			t.Errorf("ArtifactType(%q).IsValid() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestViewport_ScreenToCanvas(t *testing.T) {
	for _, tc := range []struct {
		vp     Viewport
		screen Position
		want   Position
	}{
		{Viewport{0, 0, 1}, Position{100, 50}, Position{100, 50}},
		{Viewport{20, 10, 1}, Position{100, 50}, Position{80, 40}},
		{Viewport{20, 10, 2}, Position{100, 50}, Position{40, 20}},
		{Viewport{0, 0, 0}, Position{7, 9}, Position{7, 9}},
	} {
		got := tc.vp.ScreenToCanvas(tc.screen)
		if got != tc.want {
			t.Errorf("%+v.ScreenToCanvas(%+v) = %+v, want %+v", tc.vp, tc.screen, got, tc.want)
		}
		if back := tc.vp.CanvasToScreen(got); back != tc.screen {
			t.Errorf("CanvasToScreen(ScreenToCanvas(%+v)) = %+v", tc.screen, back)
		}
	}
}

func TestCanvasData_CloneIsDeep(t *testing.T) {
	orig := CanvasData{
		Nodes: []Node{{ID: "n1", Type: NodeTypeOrg}},
		Edges: []Edge{{ID: "e1", Source: "n1", Target: "n1", Style: &EdgeStyle{StrokeDasharray: "5 5"}, MarkerEnd: &Marker{Type: MarkerArrowClosed}}},
	}
	clone := orig.Clone()
	clone.Nodes[0].ID = "changed"
	clone.Edges[0].Style.StrokeDasharray = ""
	clone.Edges[0].MarkerEnd.Type = "arrow"

	if orig.Nodes[0].ID != "n1" {
		t.Error("clone shares node backing array")
	}
	if orig.Edges[0].Style.StrokeDasharray != "5 5" {
		t.Error("clone shares edge style")
	}
	if orig.Edges[0].MarkerEnd.Type != MarkerArrowClosed {
		t.Error("clone shares edge marker")
	}
}

func TestCanvasData_Normalize(t *testing.T) {
	var d CanvasData
	d.Normalize()
	if d.Nodes == nil || d.Edges == nil {
		t.Fatal("expected empty slices after Normalize")
	}
	if d.Viewport != DefaultViewport {
		t.Errorf("viewport = %+v, want %+v", d.Viewport, DefaultViewport)
	}

	d.Viewport = Viewport{X: 5, Y: 5, Zoom: 0.5}
	d.Normalize()
	if d.Viewport.Zoom != 0.5 {
		t.Error("Normalize overwrote a non-zero viewport")
	}
}

func TestCanvasData_MarshalEmptyArrays(t *testing.T) {
	data, err := json.Marshal(CanvasData{Viewport: DefaultViewport})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"nodes":[],"edges":[],"viewport":{"x":0,"y":0,"zoom":1}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestCanvasData_JSONRoundTrip(t *testing.T) {
	in := CanvasData{
		Nodes: []Node{
			{ID: "n1", Type: NodeTypeOrg, Position: Position{X: 12.5, Y: -3}, Data: NodeData{ArtifactID: "software-salesforce"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "n1", Target: "n1", Label: "loop", Animated: true, MarkerEnd: &Marker{Type: MarkerArrowClosed}},
			{ID: "e2", Source: "n1", Target: "n1", Style: &EdgeStyle{StrokeDasharray: "5 5"}},
		},
		Viewport: Viewport{X: 10, Y: 20, Zoom: 0.75},
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out CanvasData
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestCanvas_DescriptionOmittedWhenEmpty(t *testing.T) {
	raw, err := json.Marshal(Canvas{ID: "cv-1", Name: "Acme Corp"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["description"]; ok {
		t.Errorf("description should be absent, got %s", raw)
	}
	if _, ok := m["canvasData"]; !ok {
		t.Errorf("canvasData should be present, got %s", raw)
	}
}

func TestNotFoundError_Unwrap(t *testing.T) {
	err := fmt.Errorf("load: %w", &NotFoundError{Kind: "canvas", ID: "cv-x"})
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "cv-x" {
		t.Errorf("errors.As = %v, id=%v", nf, nf)
	}
}

func TestEdge_Dashed(t *testing.T) {
	if (Edge{}).Dashed() {
		t.Error("edge without style should not be dashed")
	}
	if !(Edge{Style: &EdgeStyle{StrokeDasharray: "5 5"}}).Dashed() {
		t.Error("edge with dasharray should be dashed")
	}
}

func TestEdge_StyleAndMarkerKeepUnknownKeys(t *testing.T) {
	const in = `{"id":"e1","source":"n1","target":"n2",` +
		`"style":{"stroke":"#888","opacity":0.5,"strokeWidth":"2px"},` +
		`"markerEnd":{"type":"arrowclosed","color":"#f00","width":20}}`

	var e Edge
	if err := json.Unmarshal([]byte(in), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Style.Stroke != "#888" || e.MarkerEnd.Type != MarkerArrowClosed {
		t.Fatalf("typed keys not decoded: style=%+v marker=%+v", e.Style, e.MarkerEnd)
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got, want map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(in), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edge changed on round trip:\n got=%s\nwant=%s", out, in)
	}
}

func TestEdgeStyle_ClearedKeyIsDropped(t *testing.T) {
	var s EdgeStyle
	if err := json.Unmarshal([]byte(`{"strokeDasharray":"5 5","opacity":0.4}`), &s); err != nil {
		t.Fatal(err)
	}
	s.StrokeDasharray = ""
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"opacity":0.4}` {
		t.Errorf("got %s", out)
	}
}

func TestCanvasData_CloneCopiesExtraKeys(t *testing.T) {
	var orig CanvasData
	if err := json.Unmarshal([]byte(`{"edges":[{"id":"e1","source":"a","target":"b","style":{"opacity":0.5}}]}`), &orig); err != nil {
		t.Fatal(err)
	}
	clone := orig.Clone()
	clone.Edges[0].Style.extra["opacity"] = json.RawMessage("1")
	if string(orig.Edges[0].Style.extra["opacity"]) != "0.5" {
		t.Error("clone shares style extras")
	}
}
