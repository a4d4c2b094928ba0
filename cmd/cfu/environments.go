package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/contentful"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/ui"
)

var environmentsCmd = &cobra.Command{
	Use:     "environments",
	Aliases: []string{"envs"},
	GroupID: GroupSetup,
	Short:   "List the environments of the selected space",
	Run: func(cmd *cobra.Command, args []string) {
		aliases, _ := cmd.Flags().GetBool("aliases")
		space, err := currentSpace()
		if err != nil {
			exitWithError(err)
		}
		if err := runEnvironments(getRootContext(), cmd.OutOrStdout(), newClient(space), space.SpaceID, aliases); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	environmentsCmd.Flags().Bool("aliases", false, "List environment alias ids instead of environments")
	rootCmd.AddCommand(environmentsCmd)
}

type environmentView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	URL     string   `json:"url"`
}

func runEnvironments(ctx context.Context, w io.Writer, client *contentful.Client, spaceID string, aliasesOnly bool) error {
	items, err := client.ListEnvironments(ctx, spaceID)
	if err != nil {
		return err
	}

	if aliasesOnly {
		ids := []string{}
		for _, item := range items {
			ids = append(ids, item.AliasIDs()...)
		}
		if jsonOutput {
			return outputJSON(w, ids)
		}
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}
		return nil
	}

	views := make([]environmentView, 0, len(items))
	for _, item := range items {
		views = append(views, environmentView{
			ID:      item.Sys.ID,
			Name:    item.Name,
			Aliases: item.AliasIDs(),
			URL:     contentful.SpaceWebURL(spaceID, item.Sys.ID),
		})
	}
	if jsonOutput {
		return outputJSON(w, views)
	}
	current := currentEnvironmentID()
	for _, v := range views {
		marker := " "
		if v.ID == current {
			marker = ui.RenderPassIcon()
		}
		line := fmt.Sprintf("%s %s", marker, v.ID)
		if len(v.Aliases) > 0 {
			line += " " + ui.RenderMuted("(alias: "+strings.Join(v.Aliases, ", ")+")")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
