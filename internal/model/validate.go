package model

import (
	"fmt"
	"strings"
)

// MaxNameLength is the maximum canvas name length in runes.
const MaxNameLength = 200

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

// ValidateName checks a canvas name. It returns a *ValidationError or nil.
func ValidateName(name string) error {
	var ve ValidationError
	validateName(&ve, name)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateCanvas checks a Canvas for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the canvas is valid.
func ValidateCanvas(c *Canvas) error {
	var ve ValidationError
	validateName(&ve, c.Name)
	validateData(&ve, &c.CanvasData)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateCanvasData checks only the graph document.
//
// Edge endpoints are not required to resolve to a node, and self-loops,
// parallel edges and cycles are all accepted: the canvas is a free-form
// diagram, not a DAG.
func ValidateCanvasData(d *CanvasData) error {
	var ve ValidationError
	validateData(&ve, d)
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

func validateName(ve *ValidationError, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		ve.add("name", "is required")
	} else if len([]rune(name)) > MaxNameLength {
		ve.add("name", fmt.Sprintf("must be %d characters or fewer", MaxNameLength))
	}
}

func validateData(ve *ValidationError, d *CanvasData) {
	if d.Viewport.Zoom < 0 {
		ve.add("canvasData.viewport.zoom", "must not be negative")
	}

	nodeIDs := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		field := fmt.Sprintf("canvasData.nodes[%d]", i)
		if n.ID == "" {
			ve.add(field+".id", "is required")
			continue
		}
		if _, dup := nodeIDs[n.ID]; dup {
			ve.add(field+".id", fmt.Sprintf("duplicate node id %q", n.ID))
		}
		nodeIDs[n.ID] = struct{}{}
		if n.Type == "" {
			ve.add(field+".type", "is required")
		}
	}

	edgeIDs := make(map[string]struct{}, len(d.Edges))
	for i, e := range d.Edges {
		field := fmt.Sprintf("canvasData.edges[%d]", i)
		if e.ID == "" {
			ve.add(field+".id", "is required")
		} else {
			if _, dup := edgeIDs[e.ID]; dup {
				ve.add(field+".id", fmt.Sprintf("duplicate edge id %q", e.ID))
			}
			edgeIDs[e.ID] = struct{}{}
		}
		if e.Source == "" {
			ve.add(field+".source", "is required")
		}
		if e.Target == "" {
			ve.add(field+".target", "is required")
		}
	}
}
