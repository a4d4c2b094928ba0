package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/closure"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/config"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/contentful"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/contentful/testutil"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/export"
	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

const (
	testSpaceID = "abcdefghijkl"
	testToken   = "CFPAT-test-token-1234"
)

// setupTestSpace starts a mock CMA server holding root1 -> {e2, a1} with
// e2 -> root1, and points config at it.
func setupTestSpace(t *testing.T) *testutil.MockCMAServer {
	t.Helper()
	t.Setenv("CFU_MANAGEMENT_TOKEN", "")
	t.Setenv("CFU_OTEL_ENABLED", "")

	srv := testutil.NewMockCMAServer(testToken)
	t.Cleanup(srv.Close)
	srv.AddSpace(testSpaceID, "Marketing")
	srv.AddEnvironment(testSpaceID, "master", "production")
	srv.AddEnvironment(testSpaceID, "staging")
	srv.AddEntry(testSpaceID, "master", "root1", "page", map[string]map[string]interface{}{
		"title": {"en-US": "Hello landing page"},
		"sections": {"en-US": []types.Link{
			types.NewLink(types.LinkTypeEntry, "e2"),
			types.NewLink(types.LinkTypeAsset, "a1"),
		}},
	})
	srv.AddEntry(testSpaceID, "master", "e2", "section", map[string]map[string]interface{}{
		"title":  {"en-US": "Section"},
		"parent": {"en-US": types.NewLink(types.LinkTypeEntry, "root1")},
	})
	srv.AddAsset(testSpaceID, "master", "a1")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`api-url: %s
retry:
  max-elapsed: 1s
spaces:
  - name: marketing
    space-id: %s
    management-token: %s
  - name: legacy
    space-id: short
`, srv.URL(), testSpaceID, testToken)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, config.InitializeWithFile(path))

	resetFlags(t)
	spaceFlag = "marketing"
	return srv
}

func resetFlags(t *testing.T) {
	t.Helper()
	spaceFlag, environmentFlag, jsonOutput = "", "", false
	t.Cleanup(func() {
		spaceFlag, environmentFlag, jsonOutput = "", "", false
	})
}

func TestReadRoots(t *testing.T) {
	roots, err := readRoots([]string{"a", "b,c", " , "}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, roots)

	_, err = readRoots(nil, "")
	assert.ErrorIs(t, err, errNoRoots)

	path := filepath.Join(t.TempDir(), "roots.json")
	require.NoError(t, os.WriteFile(path, []byte(`["x", "y"]`), 0o600))
	roots, err = readRoots(nil, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, roots)

	_, err = readRoots([]string{"a"}, path)
	assert.ErrorContains(t, err, "not both")

	require.NoError(t, os.WriteFile(path, []byte(`{"ids": []}`), 0o600))
	_, err = readRoots(nil, path)
	assert.ErrorIs(t, err, export.ErrMalformedRootFile)
}

func TestRunClosureFormats(t *testing.T) {
	srv := setupTestSpace(t)
	_, env, err := openEnvironment()
	require.NoError(t, err)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runClosure(ctx, &buf, env, []string{"root1"}, "json"))
	var res closure.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, []string{"root1", "e2"}, res.Entries)
	assert.Equal(t, []string{"a1"}, res.Assets)
	// Space and environment checks, then one fetch per node.
	assert.Equal(t, 5, srv.GetRequestCount())

	buf.Reset()
	require.NoError(t, runClosure(ctx, &buf, env, []string{"root1"}, "yaml"))
	var fromYAML closure.Result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, res, fromYAML)

	buf.Reset()
	require.NoError(t, runClosure(ctx, &buf, env, []string{"root1"}, "text"))
	out := buf.String()
	assert.Contains(t, out, "ENTRIES")
	assert.Contains(t, out, "ASSETS")
	for _, id := range []string{"root1", "e2", "a1"} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "query-entries: sys.id[in]=root1,e2")
	assert.Contains(t, out, "query-assets: sys.id[in]=a1")

	srv.ClearRequests()
	err = runClosure(ctx, &buf, env, []string{"root1"}, "xml")
	assert.ErrorContains(t, err, "unknown format")
	assert.Zero(t, srv.GetRequestCount())
}

func TestRunClosureUnknownRoot(t *testing.T) {
	setupTestSpace(t)
	_, env, err := openEnvironment()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runClosure(context.Background(), &buf, env, []string{"missing"}, "text")
	var lookupErr *closure.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "missing", lookupErr.ID)
	assert.Empty(t, buf.String())

	code, hint := classifyError(err)
	assert.Equal(t, "not_found", code)
	assert.Contains(t, hint, `"missing"`)
}

func TestRunClosureUnknownEnvironment(t *testing.T) {
	srv := setupTestSpace(t)
	environmentFlag = "bogus"
	_, env, err := openEnvironment()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runClosure(context.Background(), &buf, env, []string{"root1"}, "text")
	require.ErrorIs(t, err, contentful.ErrEnvironmentNotFound)
	var lookupErr *closure.LookupError
	assert.False(t, errors.As(err, &lookupErr), "a missing environment is not a lookup failure")
	assert.Empty(t, buf.String())
	assert.Equal(t, 2, srv.GetRequestCount(), "no entry is fetched")

	code, hint := classifyError(err)
	assert.Equal(t, "environment_not_found", code)
	assert.Contains(t, hint, "cfu environments")
}

func TestRunClosureUnknownSpace(t *testing.T) {
	setupTestSpace(t)
	t.Setenv("CFU_MANAGEMENT_TOKEN", testToken)
	spaceFlag = "legacy"
	_, env, err := openEnvironment()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = runClosure(context.Background(), &buf, env, []string{"root1"}, "json")
	require.ErrorIs(t, err, contentful.ErrSpaceNotFound)
	assert.NotErrorIs(t, err, contentful.ErrEnvironmentNotFound)

	code, _ := classifyError(err)
	assert.Equal(t, "space_not_found", code)
}

func TestEnvironmentAliasAccepted(t *testing.T) {
	setupTestSpace(t)
	environmentFlag = "production"
	_, env, err := openEnvironment()
	require.NoError(t, err)

	err = env.Verify(context.Background())
	assert.NoError(t, err)
}

func TestEnvironmentFlagSelectsEnvironment(t *testing.T) {
	setupTestSpace(t)
	environmentFlag = "staging"

	_, env, err := openEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "staging", env.EnvironmentID)

	// root1 only exists in master.
	_, err = resolveClosure(context.Background(), env, []string{"root1"})
	assert.ErrorIs(t, err, contentful.ErrNotFound)
}

func TestRunExportDryRun(t *testing.T) {
	setupTestSpace(t)
	_, env, err := openEnvironment()
	require.NoError(t, err)
	dir := t.TempDir()

	cli := &export.CLIExport{
		SpaceID:         testSpaceID,
		EnvironmentID:   "master",
		ManagementToken: testToken,
		Dir:             dir,
	}
	var buf bytes.Buffer
	require.NoError(t, runExport(context.Background(), &buf, env, cli, []string{"root1"}, true))
	out := buf.String()
	assert.Contains(t, out, "space export")
	assert.Contains(t, out, "sys.id[in]=root1,e2")
	assert.Contains(t, out, "sys.id[in]=a1")
	assert.NotContains(t, out, testToken)
	assert.NoFileExists(t, filepath.Join(dir, export.DefaultContentFile))

	jsonOutput = true
	buf.Reset()
	require.NoError(t, runExport(context.Background(), &buf, env, cli, []string{"root1"}, true))
	var summary exportSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.True(t, summary.DryRun)
	assert.Empty(t, summary.ManifestFile)
	assert.Equal(t, []string{"root1", "e2"}, summary.Closure.Entries)
}

func TestRunEnvironments(t *testing.T) {
	setupTestSpace(t)
	space, err := currentSpace()
	require.NoError(t, err)
	client := newClient(space)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, runEnvironments(ctx, &buf, client, space.SpaceID, false))
	assert.Contains(t, buf.String(), "master")
	assert.Contains(t, buf.String(), "production")
	assert.Contains(t, buf.String(), "staging")

	buf.Reset()
	require.NoError(t, runEnvironments(ctx, &buf, client, space.SpaceID, true))
	assert.Equal(t, "production\n", buf.String())

	jsonOutput = true
	buf.Reset()
	require.NoError(t, runEnvironments(ctx, &buf, client, space.SpaceID, false))
	var views []environmentView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, []string{"production"}, views[0].Aliases)
	assert.Equal(t, contentful.SpaceWebURL(testSpaceID, "master"), views[0].URL)
	assert.Empty(t, views[1].Aliases)
}

func TestRunSpaces(t *testing.T) {
	setupTestSpace(t)

	var buf bytes.Buffer
	require.NoError(t, runSpaces(&buf))
	out := buf.String()
	assert.Contains(t, out, testSpaceID)
	assert.Contains(t, out, "****1234")
	assert.NotContains(t, out, testToken)
	assert.Contains(t, out, "12 characters")

	jsonOutput = true
	buf.Reset()
	require.NoError(t, runSpaces(&buf))
	var views []spaceView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "****1234", views[0].ManagementToken)
	assert.Empty(t, views[0].Warnings)
	assert.NotEmpty(t, views[1].Warnings)
}

func TestCurrentSpaceRequiresToken(t *testing.T) {
	setupTestSpace(t)
	spaceFlag = "legacy"

	_, err := currentSpace()
	assert.ErrorIs(t, err, contentful.ErrUnauthorized)

	t.Setenv("CFU_MANAGEMENT_TOKEN", "CFPAT-from-env")
	space, err := currentSpace()
	require.NoError(t, err)
	assert.Equal(t, "CFPAT-from-env", space.ManagementToken)
}

func TestSearchEntries(t *testing.T) {
	setupTestSpace(t)
	_, env, err := openEnvironment()
	require.NoError(t, err)

	matches, err := searchEntries(context.Background(), env, "hello", "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "root1", matches[0].EntryID)
	assert.Equal(t, []string{"en-US"}, matches[0].Matches["title"])

	var buf bytes.Buffer
	writeSearchText(&buf, matches, "hello")
	assert.Contains(t, buf.String(), "root1")
	assert.Contains(t, buf.String(), "1 matching entries")

	matches, err = searchEntries(context.Background(), env, "hello", "section")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	buf.Reset()
	writeSearchText(&buf, matches, "hello")
	assert.Equal(t, "No entries contain \"hello\"\n", buf.String())
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "", redactToken(""))
	assert.Equal(t, "****", redactToken("short"))
	assert.Equal(t, "****wxyz", redactToken("CFPAT-abcdefwxyz"))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"unauthorized", fmt.Errorf("wrap: %w", contentful.ErrUnauthorized), "unauthorized"},
		{"lookup", &closure.LookupError{ID: "x", Err: fmt.Errorf("boom")}, "lookup_failed"},
		{"lookup not found", &closure.LookupError{ID: "x", Err: contentful.ErrNotFound}, "not_found"},
		{"space", fmt.Errorf("%w: %q", contentful.ErrSpaceNotFound, "s"), "space_not_found"},
		{"environment", fmt.Errorf("%w: %q: %w", contentful.ErrEnvironmentNotFound, "e", contentful.ErrNotFound), "environment_not_found"},
		{"not found", fmt.Errorf("list: %w", contentful.ErrNotFound), "not_found"},
		{"malformed roots", export.ErrMalformedRootFile, "invalid_input"},
		{"no roots", closure.ErrNoRoots, "invalid_input"},
		{"cli no roots", errNoRoots, "invalid_input"},
		{"other", fmt.Errorf("other"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := classifyError(tt.err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"closure", "export", "search", "environments", "spaces", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestFullVersionString(t *testing.T) {
	saved := Commit
	t.Cleanup(func() { Commit = saved })

	Commit = "280fbcf9a253c0ffee"
	assert.Equal(t, Version+" (dev: 280fbcf9a253)", FullVersionString())
}
