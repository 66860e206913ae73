// Package ui holds the terminal styling used by the fundrazor CLI.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent   = 74  // blue
	colorCmd      = 250 // light gray
	colorMuted    = 245 // medium gray
	colorWarn     = 214 // amber
	colorStage    = 39  // sky
	colorRole     = 141 // violet
	colorSoftware = 78  // green
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color. Used for ids.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderWarn returns s in the warning color.
func RenderWarn(s string) string { return paint(colorWarn, s) }

// RenderArtifactType colors an artifact type name by kind. Unknown kinds are
// muted.
func RenderArtifactType(kind string) string {
	switch kind {
	case "stage":
		return paint(colorStage, kind)
	case "role":
		return paint(colorRole, kind)
	case "software":
		return paint(colorSoftware, kind)
	}
	return RenderMuted(kind)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
