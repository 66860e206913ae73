package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvas"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/idgen"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
)

// presenceReporter is implemented by clients that can report editing
// sessions (the HTTP client).
type presenceReporter interface {
	Heartbeat(ctx context.Context, canvasID string, hb presence.Heartbeat) ([]presence.Session, error)
	Leave(ctx context.Context, canvasID, sessionID string) error
}

var editCmd = &cobra.Command{
	Use:     "edit",
	Short:   "Edit a canvas graph (load, change, save)",
	GroupID: "canvases",
	Long: `Each edit subcommand loads the canvas, applies one change and saves the
whole document back with the loaded version, so a concurrent save by someone
else is reported as a conflict instead of being overwritten.

Nodes can be referenced by node id or by the artifact id they show
(e.g. stage-cultivation); the first matching node wins.`,
}

// runEdit loads canvasID into an editor, applies fn, and saves. Other open
// editing sessions are reported before saving.
func runEdit(cmd *cobra.Command, canvasID string, fn func(ed *canvas.Editor) (string, error)) error {
	ctx := cmd.Context()
	ed := canvas.NewEditor(canvasClient, catalog.Default)
	if err := ed.Load(ctx, canvasID); err != nil {
		return err
	}

	if pr, ok := canvasClient.(presenceReporter); ok {
		session, err := idgen.GenerateWithPrefix("cli-")
		if err != nil {
			return err
		}
		sessions, err := pr.Heartbeat(ctx, canvasID, presence.Heartbeat{SessionID: session, Actor: actor, State: canvas.Dirty.String()})
		if err == nil {
			printOtherEditors(cmd.ErrOrStderr(), sessions, session)
			defer func() { _ = pr.Leave(context.Background(), canvasID, session) }()
		}
	}

	msg, err := fn(ed)
	if err != nil {
		return err
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}

	c, err := ed.Canvas()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), c)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (canvas %s now at version %d)\n", msg, c.ID, c.Version)
	return nil
}

// resolveNode finds a node by id, falling back to the first node showing the
// given artifact.
func resolveNode(d model.CanvasData, ref string) (string, error) {
	if d.FindNode(ref) >= 0 {
		return ref, nil
	}
	for _, n := range d.Nodes {
		if n.Data.ArtifactID == ref {
			return n.ID, nil
		}
	}
	return "", &model.NotFoundError{Kind: "node", ID: ref}
}

// parsePoint parses "x,y".
func parsePoint(s string) (model.Position, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return model.Position{}, fmt.Errorf("invalid point %q (expected x,y)", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return model.Position{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return model.Position{X: x, Y: y}, nil
}

var editAddNodeCmd = &cobra.Command{
	Use:   "add-node <canvas-id> <artifact-id>",
	Short: "Place a catalog artifact on the canvas",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")
		screen, _ := cmd.Flags().GetBool("screen")
		pos, err := parsePoint(at)
		if err != nil {
			return err
		}
		return runEdit(cmd, args[0], func(ed *canvas.Editor) (string, error) {
			var (
				n   model.Node
				err error
			)
			if screen {
				// Same path as a drag from the palette: screen point through the viewport.
				if err := ed.BeginDrag(args[1]); err != nil {
					return "", err
				}
				n, err = ed.Drop(pos)
			} else {
				n, err = ed.AddNode(args[1], pos)
			}
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Added node %s (%s) at (%.0f, %.0f)", n.ID, args[1], n.Position.X, n.Position.Y), nil
		})
	},
}

var editConnectCmd = &cobra.Command{
	Use:   "connect <canvas-id> <source> <target>",
	Short: "Draw an edge between two nodes",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		return runEdit(cmd, args[0], func(ed *canvas.Editor) (string, error) {
			data := ed.Snapshot()
			src, err := resolveNode(data, args[1])
			if err != nil {
				return "", err
			}
			dst, err := resolveNode(data, args[2])
			if err != nil {
				return "", err
			}
			e, err := ed.ConnectLabeled(src, dst, label)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Connected %s -> %s (%s)", src, dst, e.ID), nil
		})
	},
}

var editRemoveNodeCmd = &cobra.Command{
	Use:   "remove-node <canvas-id> <node>",
	Short: "Delete a node and every edge touching it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args[0], func(ed *canvas.Editor) (string, error) {
			id, err := resolveNode(ed.Snapshot(), args[1])
			if err != nil {
				return "", err
			}
			removed, err := ed.DeleteNode(id)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed node %s and %d edges", id, removed), nil
		})
	},
}

var editRemoveEdgeCmd = &cobra.Command{
	Use:   "remove-edge <canvas-id> <edge-id>",
	Short: "Delete a single edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args[0], func(ed *canvas.Editor) (string, error) {
			if err := ed.DeleteEdge(args[1]); err != nil {
				return "", err
			}
			return "Removed edge " + args[1], nil
		})
	},
}

var editMoveCmd = &cobra.Command{
	Use:   "move <canvas-id> <node>",
	Short: "Move a node to a new canvas position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		pos, err := parsePoint(to)
		if err != nil {
			return err
		}
		return runEdit(cmd, args[0], func(ed *canvas.Editor) (string, error) {
			id, err := resolveNode(ed.Snapshot(), args[1])
			if err != nil {
				return "", err
			}
			if err := ed.MoveNode(id, pos); err != nil {
				return "", err
			}
			return fmt.Sprintf("Moved node %s to (%.0f, %.0f)", id, pos.X, pos.Y), nil
		})
	},
}

var editViewportCmd = &cobra.Command{
	Use:   "viewport <canvas-id>",
	Short: "Set the saved pan and zoom",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")
		zoom, _ := cmd.Flags().GetFloat64("zoom")
		return runEdit(cmd, args[0], func(ed *canvas.Editor) (string, error) {
			v := model.Viewport{X: x, Y: y, Zoom: zoom}
			if err := ed.SetViewport(v); err != nil {
				return "", err
			}
			return fmt.Sprintf("Viewport set to x=%.0f y=%.0f zoom=%.2f", x, y, zoom), nil
		})
	},
}

func init() {
	editAddNodeCmd.Flags().String("at", "0,0", "position as x,y")
	editAddNodeCmd.Flags().Bool("screen", false, "treat --at as a screen point and map it through the viewport")
	editConnectCmd.Flags().String("label", "", "edge label")
	editMoveCmd.Flags().String("to", "", "new position as x,y")
	_ = editMoveCmd.MarkFlagRequired("to")
	editViewportCmd.Flags().Float64("x", 0, "pan x")
	editViewportCmd.Flags().Float64("y", 0, "pan y")
	editViewportCmd.Flags().Float64("zoom", 1, "zoom factor (> 0)")

	editCmd.AddCommand(editAddNodeCmd)
	editCmd.AddCommand(editConnectCmd)
	editCmd.AddCommand(editRemoveNodeCmd)
	editCmd.AddCommand(editRemoveEdgeCmd)
	editCmd.AddCommand(editMoveCmd)
	editCmd.AddCommand(editViewportCmd)
}
