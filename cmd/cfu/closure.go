package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/debug"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/telemetry"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/ui"
)

var closureCmd = &cobra.Command{
	Use:     "closure [entry-id...]",
	GroupID: GroupContent,
	Short:   "List every entry and asset the given entries depend on",
	Long: `Follow links from the root entries, transitively, and print the
entries and assets that must be migrated together with them.

Roots come from the arguments or from a JSON file holding an array of ids:

  cfu closure 5KsDBWseXY6QegucYAoacS
  cfu closure --file roots.json --format yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		if jsonOutput && !cmd.Flags().Changed("format") {
			format = "json"
		}

		roots, err := readRoots(args, file)
		if err != nil {
			exitWithError(err)
		}
		_, env, err := openEnvironment()
		if err != nil {
			exitWithError(err)
		}
		if err := runClosure(getRootContext(), cmd.OutOrStdout(), env, roots, format); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	closureCmd.Flags().StringP("file", "f", "", "JSON file with an array of root entry ids")
	closureCmd.Flags().String("format", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(closureCmd)
}

// verifier is implemented by environments that can confirm their space and
// environment exist before any entry is fetched.
type verifier interface {
	Verify(ctx context.Context) error
}

// resolveClosure runs the resolver against env with tracing and debug logging.
func resolveClosure(ctx context.Context, env closure.Environment, roots []string) (*closure.Result, error) {
	if v, ok := env.(verifier); ok {
		if err := v.Verify(ctx); err != nil {
			return nil, err
		}
	}
	debug.Logf("closure: resolving %d root(s) in environment %s\n", len(roots), currentEnvironmentID())
	return closure.Resolve(ctx, telemetry.WrapEnvironment(env), roots,
		closure.WithLogger(warnUnlessQuiet),
		closure.WithVisitFunc(func(id string, kind closure.Kind) {
			debug.Logf("closure: visited %s %s\n", kind, id)
		}),
	)
}

// warnUnlessQuiet surfaces skipped malformed links to the user.
func warnUnlessQuiet(format string, args ...interface{}) {
	if !debug.IsQuiet() {
		fmt.Fprintf(os.Stderr, "Warning: "+format, args...)
	}
}

func runClosure(ctx context.Context, w io.Writer, env closure.Environment, roots []string, format string) error {
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	res, err := resolveClosure(ctx, env, roots)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return outputJSON(w, res)
	case "yaml":
		return outputYAML(w, res)
	}
	writeClosureText(w, res)
	return nil
}

func writeClosureText(w io.Writer, res *closure.Result) {
	fmt.Fprintf(w, "%s %s\n", ui.RenderCategory("Entries"), ui.RenderMuted(fmt.Sprintf("(%d)", len(res.Entries))))
	for _, id := range res.Entries {
		fmt.Fprintf(w, "%s%s\n", ui.TreeIndent, ui.RenderEntryID(id))
	}
	fmt.Fprintf(w, "%s %s\n", ui.RenderCategory("Assets"), ui.RenderMuted(fmt.Sprintf("(%d)", len(res.Assets))))
	for _, id := range res.Assets {
		fmt.Fprintf(w, "%s%s\n", ui.TreeIndent, ui.RenderAssetID(id))
	}
	if !debug.IsQuiet() {
		fmt.Fprintf(w, "\n%s %s\n", ui.RenderPassIcon(),
			ui.RenderMuted("query-entries: sys.id[in]="+strings.Join(res.Entries, ",")))
		fmt.Fprintf(w, "%s %s\n", ui.RenderPassIcon(),
			ui.RenderMuted("query-assets: sys.id[in]="+strings.Join(res.Assets, ",")))
	}
}
