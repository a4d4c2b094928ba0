package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/debug"
)

const (
	// DefaultDir is where exports are written.
	DefaultDir = "./output/exports/"
	// DefaultContentFile is the export file name inside DefaultDir.
	DefaultContentFile = "selected-exports.json"
)

// DefaultCommand invokes the Contentful CLI through npx.
var DefaultCommand = []string{"npx", "contentful-cli"}

const redacted = "<redacted>"

// CLIExport runs `contentful-cli space export` restricted to the identifiers
// of a closure.
type CLIExport struct {
	Command         []string
	SpaceID         string
	EnvironmentID   string
	ManagementToken string
	Dir             string
	ContentFile     string
	DownloadAssets  bool

	Stdout io.Writer
	Stderr io.Writer

	// runner replaces process execution in tests.
	runner func(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// ContentPath is the file the export writes.
func (c *CLIExport) ContentPath() string {
	return filepath.Join(c.dir(), c.contentFile())
}

func (c *CLIExport) dir() string {
	if c.Dir == "" {
		return DefaultDir
	}
	return c.Dir
}

func (c *CLIExport) contentFile() string {
	if c.ContentFile == "" {
		return DefaultContentFile
	}
	return c.ContentFile
}

func (c *CLIExport) command() []string {
	if len(c.Command) == 0 {
		return DefaultCommand
	}
	return c.Command
}

// Args returns the export arguments for res, without the command itself.
func (c *CLIExport) Args(res *closure.Result) []string {
	return c.args(res, c.ManagementToken)
}

func (c *CLIExport) args(res *closure.Result, token string) []string {
	args := []string{
		"space", "export",
		"--space-id", c.SpaceID,
		"--management-token", token,
		"--environment-id", c.EnvironmentID,
		"--content-only",
		"--skip-tags",
	}
	if c.DownloadAssets {
		args = append(args, "--download-assets")
	}
	args = append(args,
		"--query-entries", "sys.id[in]="+strings.Join(res.Entries, ","),
		"--query-assets", "sys.id[in]="+strings.Join(res.Assets, ","),
		"--content-file", c.contentFile(),
		"--export-dir", c.dir(),
	)
	return args
}

// CommandLine renders the full command for display, with the management
// token redacted.
func (c *CLIExport) CommandLine(res *closure.Result) string {
	parts := append([]string{}, c.command()...)
	for _, arg := range c.args(res, redacted) {
		if strings.ContainsAny(arg, " []=,") {
			arg = "'" + arg + "'"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func (c *CLIExport) validate() error {
	var missing []string
	if c.SpaceID == "" {
		missing = append(missing, "space id")
	}
	if c.EnvironmentID == "" {
		missing = append(missing, "environment id")
	}
	if c.ManagementToken == "" {
		missing = append(missing, "management token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("export: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Run creates the export directory and executes the export. It returns the
// path of the written content file.
func (c *CLIExport) Run(ctx context.Context, res *closure.Result) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	if res == nil || len(res.Entries) == 0 {
		return "", errors.New("export: closure has no entries")
	}
	if err := os.MkdirAll(c.dir(), 0o755); err != nil {
		return "", fmt.Errorf("export: create %s: %w", c.dir(), err)
	}

	cmd := c.command()
	args := append(append([]string{}, cmd[1:]...), c.Args(res)...)
	debug.Logf("export: running %s\n", c.CommandLine(res))

	run := c.runner
	if run == nil {
		run = execRunner
	}
	if err := run(ctx, cmd[0], args, c.writer(c.Stdout, os.Stdout), c.writer(c.Stderr, os.Stderr)); err != nil {
		return "", fmt.Errorf("export: command to export content failed: %w", err)
	}
	return c.ContentPath(), nil
}

func (c *CLIExport) writer(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}

func execRunner(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 - command comes from config
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}
