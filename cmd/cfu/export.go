package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/config"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/debug"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/export"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export [entry-id...]",
	GroupID: GroupContent,
	Short:   "Export the given entries and everything they link to",
	Long: `Resolve the closure of the root entries, then run
"contentful-cli space export" restricted to exactly those entries and assets.
A manifest recording the closure is written next to the export file.

  cfu export --file roots.json --dir ./output/exports/
  cfu export 5KsDBWseXY6QegucYAoacS --dry-run`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		dir, _ := cmd.Flags().GetString("dir")
		if !cmd.Flags().Changed("dir") {
			dir = config.GetString("export.dir")
		}

		roots, err := readRoots(args, file)
		if err != nil {
			exitWithError(err)
		}
		space, env, err := openEnvironment()
		if err != nil {
			exitWithError(err)
		}

		cli := &export.CLIExport{
			Command:         config.ExportCommand(),
			SpaceID:         space.SpaceID,
			EnvironmentID:   currentEnvironmentID(),
			ManagementToken: space.ManagementToken,
			Dir:             dir,
			ContentFile:     config.GetString("export.file"),
			DownloadAssets:  config.GetBool("export.download-assets"),
			Stdout:          os.Stderr,
			Stderr:          os.Stderr,
		}
		if err := runExport(getRootContext(), cmd.OutOrStdout(), env, cli, roots, dryRun); err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	exportCmd.Flags().StringP("file", "f", "", "JSON file with an array of root entry ids")
	exportCmd.Flags().String("dir", export.DefaultDir, "Directory the export is written to")
	exportCmd.Flags().Bool("dry-run", false, "Print the export command instead of running it")
	rootCmd.AddCommand(exportCmd)
}

// exportSummary is the --json output of cfu export.
type exportSummary struct {
	DryRun       bool            `json:"dryRun"`
	Command      string          `json:"command"`
	ContentFile  string          `json:"contentFile,omitempty"`
	ManifestFile string          `json:"manifestFile,omitempty"`
	Closure      *closure.Result `json:"closure"`
}

func runExport(ctx context.Context, w io.Writer, env closure.Environment, cli *export.CLIExport, roots []string, dryRun bool) error {
	res, err := resolveClosure(ctx, env, roots)
	if err != nil {
		return err
	}

	summary := exportSummary{DryRun: dryRun, Command: cli.CommandLine(res), Closure: res}
	if !dryRun {
		contentPath, err := cli.Run(ctx, res)
		if err != nil {
			return err
		}
		manifestPath, err := export.WriteManifest(contentPath, export.NewManifest(cli.SpaceID, cli.EnvironmentID, roots, res))
		if err != nil {
			return err
		}
		debug.Logf("export: wrote manifest %s\n", manifestPath)
		summary.ContentFile, summary.ManifestFile = contentPath, manifestPath
	}

	if jsonOutput {
		return outputJSON(w, summary)
	}
	if dryRun {
		fmt.Fprintln(w, summary.Command)
		debug.PrintNormal("%s %d entries, %d assets (dry run, nothing exported)\n",
			ui.RenderInfoIcon(), len(res.Entries), len(res.Assets))
		return nil
	}
	fmt.Fprintf(w, "%s Exported %d entries and %d assets to %s\n",
		ui.RenderPassIcon(), len(res.Entries), len(res.Assets), summary.ContentFile)
	fmt.Fprintf(w, "%s%s %s\n", ui.TreeIndent, ui.TreeLast, ui.RenderMuted("manifest: "+summary.ManifestFile))
	return nil
}
