package ui

import "testing"

func TestTruncate(t *testing.T) {
	for _, tc := range []struct {
		in    string
		width int
		want  string
	}{
		{"Acme Fundraising", 40, "Acme Fundraising"},
		{"Acme Fundraising", 5, "Acme…"},
		{"Acme", 1, "…"},
		{"Acme", 0, "Acme"},
		{"Überblick", 3, "Üb…"},
	} {
		if got := Truncate(tc.in, tc.width); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestShouldUseColor_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("NO_COLOR should win over CLICOLOR_FORCE")
	}
}

func TestShouldUseColor_Force(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	if !ShouldUseColor() {
		t.Error("CLICOLOR_FORCE=1 should enable color")
	}
}

func TestRenderArtifactType(t *testing.T) {
	if got := RenderArtifactType("stage"); got != "\x1b[38;5;39mstage\x1b[0m" {
		t.Errorf("RenderArtifactType(stage) = %q", got)
	}
	if got := RenderArtifactType("metric"); got != RenderMuted("metric") {
		t.Errorf("unknown kinds should be muted, got %q", got)
	}
}
