package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/client"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

var canvasCmd = &cobra.Command{
	Use:     "canvas",
	Short:   "List, create and manage organization canvases",
	GroupID: "canvases",
}

var canvasListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List canvases",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := canvasClient.ListCanvases(cmd.Context(), &client.ListCanvasesRequest{
			Search: search,
			Sort:   sort,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp.Canvases)
		}
		printCanvasListTable(cmd.OutOrStdout(), resp.Canvases, resp.Total)
		return nil
	},
}

var canvasShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a canvas and its nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := canvasClient.GetCanvas(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		printCanvasTable(cmd.OutOrStdout(), c)
		return nil
	},
}

var canvasCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a canvas seeded with the fundraising pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		empty, _ := cmd.Flags().GetBool("empty")
		from, _ := cmd.Flags().GetString("from")

		req := &client.CreateCanvasRequest{Name: args[0], Description: desc}
		switch {
		case from != "":
			data, err := readCanvasData(from)
			if err != nil {
				return err
			}
			req.CanvasData = data
		case empty:
			req.CanvasData = &model.CanvasData{Viewport: model.DefaultViewport}
		}

		c, err := canvasClient.CreateCanvas(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created canvas %s (%d nodes, %d edges)\n", c.ID, len(c.CanvasData.Nodes), len(c.CanvasData.Edges))
		return nil
	},
}

// readCanvasData loads a canvasData document from a JSON file ("-" = stdin).
func readCanvasData(path string) (*model.CanvasData, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var data model.CanvasData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &data, nil
}

var canvasRenameCmd = &cobra.Command{
	Use:   "rename <id>",
	Short: "Change a canvas name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.RenameCanvasRequest{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			req.Name = &name
		}
		if cmd.Flags().Changed("description") {
			desc, _ := cmd.Flags().GetString("description")
			req.Description = &desc
		}
		if req.Name == nil && req.Description == nil {
			return fmt.Errorf("nothing to change: pass --name and/or --description")
		}

		c, err := canvasClient.RenameCanvas(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated canvas %s: %s\n", c.ID, c.Name)
		return nil
	},
}

var canvasDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a canvas",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := canvasClient.DeleteCanvas(cmd.Context(), args[0]); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": true, "id": args[0]})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted canvas %s\n", args[0])
		return nil
	},
}

var canvasExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a canvas as a Mermaid diagram, text listing or JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("output")

		var out string
		if format == "json" {
			c, err := canvasClient.GetCanvas(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(c.CanvasData, "", "  ")
			if err != nil {
				return err
			}
			out = string(data) + "\n"
		} else {
			var err error
			if out, err = canvasClient.GetDiagram(cmd.Context(), args[0], format); err != nil {
				return err
			}
		}

		if outPath == "" || outPath == "-" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		}
		if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outPath)
		return nil
	},
}

var canvasHistoryCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show the change history of a canvas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evts, err := canvasClient.GetEvents(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), evts)
		}
		printEventsTable(cmd.OutOrStdout(), evts)
		return nil
	},
}

func init() {
	canvasListCmd.Flags().String("search", "", "filter by name")
	canvasListCmd.Flags().String("sort", "", "sort by name, created_at or updated_at (prefix - for descending)")
	canvasListCmd.Flags().Int("limit", 0, "maximum number of canvases to return (0 = all)")
	canvasListCmd.Flags().Int("offset", 0, "offset for pagination")

	canvasCreateCmd.Flags().String("description", "", "canvas description")
	canvasCreateCmd.Flags().Bool("empty", false, "start from an empty canvas instead of the pipeline template")
	canvasCreateCmd.Flags().String("from", "", "read the initial canvasData from a JSON file (- for stdin)")
	canvasCreateCmd.MarkFlagsMutuallyExclusive("empty", "from")

	canvasRenameCmd.Flags().String("name", "", "new name")
	canvasRenameCmd.Flags().String("description", "", "new description")

	canvasExportCmd.Flags().StringP("format", "f", "mermaid", "output format: mermaid, text or json")
	canvasExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")

	canvasCmd.AddCommand(canvasListCmd)
	canvasCmd.AddCommand(canvasShowCmd)
	canvasCmd.AddCommand(canvasCreateCmd)
	canvasCmd.AddCommand(canvasRenameCmd)
	canvasCmd.AddCommand(canvasDeleteCmd)
	canvasCmd.AddCommand(canvasExportCmd)
	canvasCmd.AddCommand(canvasHistoryCmd)
}
