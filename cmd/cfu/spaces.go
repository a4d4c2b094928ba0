package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/config"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/ui"
)

var spacesCmd = &cobra.Command{
	Use:     "spaces",
	GroupID: GroupSetup,
	Short:   "List the spaces configured in config.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSpaces(cmd.OutOrStdout()); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(spacesCmd)
}

type spaceView struct {
	Name             string   `json:"name"`
	SpaceID          string   `json:"spaceId"`
	ManagementToken  string   `json:"managementToken"`
	HasDeliveryToken bool     `json:"hasDeliveryToken"`
	Warnings         []string `json:"warnings,omitempty"`
}

// redactToken keeps only the last four characters of a token.
func redactToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 8:
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func runSpaces(w io.Writer) error {
	spaces, err := config.Spaces()
	if err != nil {
		return err
	}

	views := make([]spaceView, 0, len(spaces))
	for _, s := range spaces {
		views = append(views, spaceView{
			Name:             s.Name,
			SpaceID:          s.SpaceID,
			ManagementToken:  redactToken(s.ManagementToken),
			HasDeliveryToken: s.DeliveryToken != "",
			Warnings:         s.Warnings(),
		})
	}
	if jsonOutput {
		return outputJSON(w, views)
	}

	if len(views) == 0 {
		fmt.Fprintf(w, "No spaces configured in %s\n", ui.RenderMuted(configLocation()))
		return nil
	}
	selected := spaceFlag
	if selected == "" {
		selected = config.GetString("space")
	}
	for _, v := range views {
		name := v.Name
		if name == selected || v.SpaceID == selected {
			name = ui.RenderAccent(name)
		}
		token := v.ManagementToken
		if token == "" {
			token = ui.RenderWarn("no token")
		}
		fmt.Fprintf(w, "%s  %s  %s\n", name, v.SpaceID, ui.RenderMuted(token))
		for _, warning := range v.Warnings {
			fmt.Fprintf(w, "%s%s %s\n", ui.TreeIndent, ui.RenderWarnIcon(), warning)
		}
	}
	return nil
}

func configLocation() string {
	if used := config.ConfigFileUsed(); used != "" {
		return used
	}
	return config.ConfigDir()
}
