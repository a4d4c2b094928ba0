package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/contentful"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/search"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:     "search <text>",
	GroupID: GroupContent,
	Short:   "Find entries whose text fields contain the given text",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contentType, _ := cmd.Flags().GetString("content-type")
		noPager, _ := cmd.Flags().GetBool("no-pager")

		_, env, err := openEnvironment()
		if err != nil {
			exitWithError(err)
		}
		query := strings.Join(args, " ")
		matches, err := searchEntries(getRootContext(), env, query, contentType)
		if err != nil {
			exitWithError(err)
		}

		if jsonOutput {
			mustOutputJSON(cmd.OutOrStdout(), matches)
			return
		}
		var buf bytes.Buffer
		writeSearchText(&buf, matches, query)
		if err := ui.ToPager(cmd.OutOrStdout(), buf.String(), ui.PagerOptions{NoPager: noPager}); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	searchCmd.Flags().StringP("content-type", "t", "", "Only search entries of this content type")
	searchCmd.Flags().Bool("no-pager", false, "Disable pager output")
	rootCmd.AddCommand(searchCmd)
}

func searchEntries(ctx context.Context, env *contentful.Environment, query, contentType string) ([]search.Match, error) {
	entries, err := env.ListEntries(ctx, contentful.EntryQuery{ContentType: contentType})
	if err != nil {
		return nil, err
	}
	matches := search.Entries(entries, query, env.EntryWebURL)
	if matches == nil {
		matches = []search.Match{}
	}
	return matches, nil
}

func writeSearchText(w io.Writer, matches []search.Match, query string) {
	if len(matches) == 0 {
		fmt.Fprintf(w, "No entries contain %q\n", query)
		return
	}
	for _, m := range matches {
		title := m.Title
		if title == "" {
			title = ui.RenderMuted("(untitled)")
		}
		fmt.Fprintf(w, "%s %s %s\n", ui.RenderEntryID(m.EntryID), ui.Truncate(title, 60), ui.RenderMuted("["+m.ContentType+"]"))

		fields := make([]string, 0, len(m.Matches))
		for field := range m.Matches {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(w, "%s%s%s %s\n", ui.TreeIndent, ui.TreeChild,
				ui.Highlight(field, query), ui.RenderMuted(strings.Join(m.Matches[field], ", ")))
		}
		if m.URL != "" {
			fmt.Fprintf(w, "%s%s%s\n", ui.TreeIndent, ui.TreeLast, ui.RenderAccent(m.URL))
		}
	}
	fmt.Fprintf(w, "\n%d matching entries\n", len(matches))
}
