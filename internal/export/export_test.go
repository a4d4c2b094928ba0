package export

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
)

func TestParseRootIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"valid", `["a", "b"]`, []string{"a", "b"}, false},
		{"single", `["root1"]`, []string{"root1"}, false},
		{"not an array", `{"ids": ["a"]}`, nil, true},
		{"number element", `["a", 1]`, nil, true},
		{"null element", `["a", null]`, nil, true},
		{"empty string", `["a", ""]`, nil, true},
		{"empty array", `[]`, nil, true},
		{"invalid json", `[`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRootIDs([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedRootFile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRootIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roots.json")
	require.NoError(t, os.WriteFile(path, []byte(`["x", "y"]`), 0o600))

	ids, err := ReadRootIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids)

	_, err = ReadRootIDs(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	contentPath := filepath.Join(dir, "nested", "selected-exports.json")
	res := &closure.Result{Entries: []string{"root1", "e2"}, Assets: []string{"a1"}}

	path, err := WriteManifest(contentPath, NewManifest("space1", "master", []string{"root1"}, res))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested", "selected-exports.manifest.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "space1", m.SpaceID)
	assert.Equal(t, "master", m.Environment)
	assert.Equal(t, []string{"root1"}, m.Roots)
	assert.Equal(t, res.Entries, m.Entries)
	assert.Equal(t, res.Assets, m.Assets)
	assert.False(t, m.ExportedAt.IsZero())

	leftovers, _ := filepath.Glob(filepath.Join(dir, "nested", "*.tmp.*"))
	assert.Empty(t, leftovers)
}

func TestCLIExportArgs(t *testing.T) {
	c := &CLIExport{
		SpaceID:         "space1",
		EnvironmentID:   "staging",
		ManagementToken: "secret",
		DownloadAssets:  true,
	}
	res := &closure.Result{Entries: []string{"root1", "e2"}, Assets: []string{"a1", "a2"}}

	assert.Equal(t, []string{
		"space", "export",
		"--space-id", "space1",
		"--management-token", "secret",
		"--environment-id", "staging",
		"--content-only",
		"--skip-tags",
		"--download-assets",
		"--query-entries", "sys.id[in]=root1,e2",
		"--query-assets", "sys.id[in]=a1,a2",
		"--content-file", DefaultContentFile,
		"--export-dir", DefaultDir,
	}, c.Args(res))

	line := c.CommandLine(res)
	assert.NotContains(t, line, "secret")
	assert.Contains(t, line, "npx contentful-cli space export")
	assert.Contains(t, line, "'sys.id[in]=root1,e2'")
}

func TestCLIExportRun(t *testing.T) {
	dir := t.TempDir()
	var gotName string
	var gotArgs []string

	c := &CLIExport{
		Command:         []string{"contentful", "--verbose"},
		SpaceID:         "space1",
		EnvironmentID:   "master",
		ManagementToken: "tok",
		Dir:             filepath.Join(dir, "exports"),
		ContentFile:     "out.json",
		runner: func(_ context.Context, name string, args []string, _, _ io.Writer) error {
			gotName, gotArgs = name, args
			return nil
		},
	}

	path, err := c.Run(context.Background(), &closure.Result{Entries: []string{"r"}, Assets: []string{}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "out.json"), path)
	assert.DirExists(t, filepath.Join(dir, "exports"))
	assert.Equal(t, "contentful", gotName)
	assert.Equal(t, []string{"--verbose", "space", "export"}, gotArgs[:3])
	assert.Contains(t, gotArgs, "sys.id[in]=")
}

func TestCLIExportRunErrors(t *testing.T) {
	res := &closure.Result{Entries: []string{"r"}}

	_, err := (&CLIExport{SpaceID: "s"}).Run(context.Background(), res)
	assert.ErrorContains(t, err, "environment id, management token")

	failing := &CLIExport{
		SpaceID: "s", EnvironmentID: "e", ManagementToken: "t", Dir: t.TempDir(),
		runner: func(context.Context, string, []string, io.Writer, io.Writer) error {
			return errors.New("exit status 1")
		},
	}
	_, err = failing.Run(context.Background(), res)
	assert.ErrorContains(t, err, "command to export content failed")

	_, err = failing.Run(context.Background(), &closure.Result{})
	assert.ErrorContains(t, err, "no entries")
}
