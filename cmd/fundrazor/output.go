package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvas"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/client"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printCanvasTable(w io.Writer, c *model.Canvas) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(c.ID))
	fmt.Fprintf(w, "Name:        %s\n", c.Name)
	if c.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(w, "Version:     %d\n", c.Version)
	fmt.Fprintf(w, "Nodes:       %d\n", len(c.CanvasData.Nodes))
	fmt.Fprintf(w, "Edges:       %d\n", len(c.CanvasData.Edges))
	v := c.CanvasData.Viewport
	fmt.Fprintf(w, "Viewport:    x=%.0f y=%.0f zoom=%.2f\n", v.X, v.Y, v.Zoom)
	if !c.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created At:  %s\n", c.CreatedAt.Local().Format(timeLayout))
	}
	if !c.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", c.UpdatedAt.Local().Format(timeLayout))
	}
	if len(c.CanvasData.Nodes) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tKIND\tLABEL\tPOSITION")
	for _, n := range c.CanvasData.Nodes {
		view := canvas.RenderNode(n, catalog.Default)
		kind := "unknown"
		if view.Known {
			kind = string(view.Kind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t(%.0f, %.0f)\n", n.ID, ui.RenderArtifactType(kind), view.Label, n.Position.X, n.Position.Y)
	}
	tw.Flush()
}

func printCanvasListTable(w io.Writer, canvases []*model.Canvas, total int) {
	if len(canvases) == 0 {
		fmt.Fprintln(w, "No canvases yet. Create one with 'fundrazor canvas create <name>'.")
		return
	}
	nameWidth := ui.TerminalWidth(120) - 60
	if nameWidth < 20 {
		nameWidth = 20
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNODES\tEDGES\tVERSION\tUPDATED")
	for _, c := range canvases {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			ui.RenderAccent(c.ID),
			ui.Truncate(c.Name, nameWidth),
			len(c.CanvasData.Nodes),
			len(c.CanvasData.Edges),
			c.Version,
			c.UpdatedAt.Local().Format(timeLayout),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d canvases (%d total)\n", len(canvases), total)
}

func printEventsTable(w io.Writer, evts []*model.Event) {
	if len(evts) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tTOPIC\tACTOR")
	for _, e := range evts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Local().Format(timeLayout), e.Topic, e.Actor)
	}
	tw.Flush()
}

func printArtifactsTable(w io.Writer, artifacts []*model.Artifact) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tCATEGORY")
	for _, a := range artifacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, ui.RenderArtifactType(string(a.Type)), a.DisplayName, a.Category)
	}
	tw.Flush()
}

func printArtifact(w io.Writer, a *model.Artifact) {
	fmt.Fprintf(w, "ID:          %s\n", ui.RenderAccent(a.ID))
	fmt.Fprintf(w, "Type:        %s\n", ui.RenderArtifactType(string(a.Type)))
	if a.Subtype != "" {
		fmt.Fprintf(w, "Subtype:     %s\n", a.Subtype)
	}
	fmt.Fprintf(w, "Name:        %s\n", a.DisplayName)
	fmt.Fprintf(w, "Description: %s\n", a.Description)
	fmt.Fprintf(w, "Icon:        %s\n", a.Icon)
	fmt.Fprintf(w, "Color:       %s\n", a.ColorToken)
	if a.Category != "" {
		fmt.Fprintf(w, "Category:    %s\n", a.Category)
	}
}

func printCategories(w io.Writer, groups []client.SoftwareCategory) {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", ui.RenderAccent(g.Name), len(g.Artifacts))
		for _, a := range g.Artifacts {
			fmt.Fprintf(w, "  %-28s %s\n", a.ID, a.DisplayName)
		}
	}
}

// printOtherEditors warns about sessions other than ours on the same canvas.
func printOtherEditors(w io.Writer, sessions []presence.Session, self string) {
	for _, s := range sessions {
		if s.SessionID == self {
			continue
		}
		who := s.Actor
		if who == "" {
			who = s.SessionID
		}
		fmt.Fprintln(w, ui.RenderWarn(fmt.Sprintf("warning: %s is also editing this canvas (last seen %.0fs ago); saves replace the whole document", who, s.IdleSecs)))
	}
}

// describeError turns the model error taxonomy into an actionable message.
func describeError(err error) string {
	var (
		nf *model.NotFoundError
		ce *model.ConflictError
		ne *model.NetworkError
		ve *model.ValidationError
	)
	switch {
	case errors.As(err, &nf) && nf.Kind != "canvas":
		return err.Error()
	case canvas.IsGone(err):
		return fmt.Sprintf("%v\nThe canvas no longer exists. Run 'fundrazor canvas list' to see the current collection.", err)
	case errors.As(err, &ce):
		return fmt.Sprintf("%v\nSomeone else saved this canvas first. Run 'fundrazor canvas show %s' and retry.", err, ce.ID)
	case errors.As(err, &ne):
		return fmt.Sprintf("%v\nThe server could not be reached. Nothing was changed; retry when it is available.", err)
	case errors.As(err, &ve):
		return err.Error()
	}
	return err.Error()
}
