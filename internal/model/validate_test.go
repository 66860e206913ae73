package model

import (
	"errors"
	"strings"
	"testing"
)

// validCanvas returns a Canvas that passes all validation rules.
func validCanvas() Canvas {
	return Canvas{
		Name: "Acme Corp",
		CanvasData: CanvasData{
			Nodes: []Node{
				{ID: "n1", Type: NodeTypeOrg, Data: NodeData{ArtifactID: "stage-identification"}},
				{ID: "n2", Type: NodeTypeOrg, Data: NodeData{ArtifactID: "stage-cultivation"}},
			},
			Edges: []Edge{
				{ID: "e1", Source: "n1", Target: "n2", Animated: true},
			},
			Viewport: DefaultViewport,
		},
	}
}

// fieldErrors extracts a *ValidationError from err or fails the test.
func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve.Errors
}

// hasFieldError reports whether the error list contains an error for the given field.
func hasFieldError(errs []FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestValidate_ValidCanvas(t *testing.T) {
	c := validCanvas()
	if err := ValidateCanvas(&c); err != nil {
		t.Fatalf("expected valid canvas, got %v", err)
	}
}

func TestValidate_NameRequired(t *testing.T) {
	for _, name := range []string{"", "   \t\n  "} {
		c := validCanvas()
		c.Name = name
		errs := fieldErrors(t, ValidateCanvas(&c))
		if !hasFieldError(errs, "name") {
			t.Errorf("expected error on field 'name' for name %q", name)
		}
	}
}

func TestValidate_NameTooLong(t *testing.T) {
	if err := ValidateName(strings.Repeat("a", MaxNameLength)); err != nil {
		t.Fatalf("name at max length should be valid, got %v", err)
	}
	errs := fieldErrors(t, ValidateName(strings.Repeat("a", MaxNameLength+1)))
	if !hasFieldError(errs, "name") {
		t.Error("expected error on field 'name' for long name")
	}
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	c := validCanvas()
	c.CanvasData.Nodes[1].ID = "n1"
	errs := fieldErrors(t, ValidateCanvas(&c))
	if !hasFieldError(errs, "canvasData.nodes[1].id") {
		t.Errorf("expected duplicate id error, got %v", errs)
	}
}

func TestValidate_EdgeMissingEndpoints(t *testing.T) {
	c := validCanvas()
	c.CanvasData.Edges = append(c.CanvasData.Edges, Edge{ID: "e2"})
	errs := fieldErrors(t, ValidateCanvas(&c))
	if !hasFieldError(errs, "canvasData.edges[1].source") || !hasFieldError(errs, "canvasData.edges[1].target") {
		t.Errorf("expected source and target errors, got %v", errs)
	}
}

func TestValidate_PermissiveEdges(t *testing.T) {
	c := validCanvas()
	c.CanvasData.Edges = append(c.CanvasData.Edges,
		Edge{ID: "self", Source: "n1", Target: "n1"},
		Edge{ID: "parallel", Source: "n1", Target: "n2"},
		Edge{ID: "back", Source: "n2", Target: "n1"},
		Edge{ID: "dangling", Source: "n1", Target: "gone"},
	)
	if err := ValidateCanvas(&c); err != nil {
		t.Fatalf("self, parallel, cyclic and dangling edges should be accepted, got %v", err)
	}
}

func TestValidate_NegativeZoom(t *testing.T) {
	d := validCanvas().CanvasData
	d.Viewport.Zoom = -1
	errs := fieldErrors(t, ValidateCanvasData(&d))
	if !hasFieldError(errs, "canvasData.viewport.zoom") {
		t.Errorf("expected zoom error, got %v", errs)
	}
}

func TestValidationError_Format(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{
		{Field: "name", Message: "is required"},
		{Field: "canvasData.nodes[0].id", Message: "is required"},
	}}
	want := "validation failed: name: is required; canvasData.nodes[0].id: is required"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
