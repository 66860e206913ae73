package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

var artifactsCmd = &cobra.Command{
	Use:     "artifacts",
	Aliases: []string{"catalog"},
	Short:   "Browse the artifact catalog",
	GroupID: "catalog",
}

var artifactsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List catalog artifacts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		t := model.ArtifactType(strings.ToLower(typ))
		if t != "" && !t.IsValid() {
			return fmt.Errorf("unknown artifact type %q", typ)
		}
		list, err := canvasClient.ListArtifacts(cmd.Context(), t)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		printArtifactsTable(cmd.OutOrStdout(), list)
		return nil
	},
}

var artifactsShowCmd = &cobra.Command{
	Use:   "show <artifact-id>",
	Short: "Show one catalog artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := canvasClient.GetArtifact(cmd.Context(), args[0])
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("unknown artifact %q", args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), a)
		}
		printArtifact(cmd.OutOrStdout(), a)
		return nil
	},
}

var artifactsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List software artifacts grouped by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		groups, err := canvasClient.SoftwareCategories(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), groups)
		}
		printCategories(cmd.OutOrStdout(), groups)
		return nil
	},
}

func init() {
	artifactsListCmd.Flags().StringP("type", "t", "", "filter by type (stage, role, software, document, metric, process)")

	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsShowCmd)
	artifactsCmd.AddCommand(artifactsCategoriesCmd)
}
