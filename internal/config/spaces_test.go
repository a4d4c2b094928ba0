package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoSpaces = `
spaces:
  - name: blog
    space-id: abcdefghijkl
    management-token: CFPAT-blog
  - name: docs
    space-id: mnopqrstuvwx
    management-token: CFPAT-docs
    delivery-token: cda-docs
`

func TestLoadSpaces(t *testing.T) {
	spaces, err := LoadSpaces(writeConfig(t, twoSpaces))
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, Space{Name: "blog", SpaceID: "abcdefghijkl", ManagementToken: "CFPAT-blog"}, spaces[0])
	assert.Equal(t, "cda-docs", spaces[1].DeliveryToken)
	assert.Empty(t, spaces[0].Warnings())
}

func TestLoadSpacesMissingFile(t *testing.T) {
	spaces, err := LoadSpaces(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Nil(t, spaces)

	spaces, err = LoadSpaces("")
	require.NoError(t, err)
	assert.Nil(t, spaces)
}

func TestLoadSpacesValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"duplicate name", "spaces:\n  - {name: a, space-id: x}\n  - {name: a, space-id: y}\n", `name "a" already exists`},
		{"duplicate id", "spaces:\n  - {name: a, space-id: x}\n  - {name: b, space-id: x}\n", `ID "x" already exists`},
		{"missing name", "spaces:\n  - {space-id: x}\n", "name is required"},
		{"missing id", "spaces:\n  - {name: a}\n", "space-id is required"},
		{"bad yaml", "spaces: [\n", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSpaces(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSpaceWarnings(t *testing.T) {
	warnings := Space{Name: "short", SpaceID: "abc"}.Warnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "12 characters")
	assert.Contains(t, warnings[1], "no management token")
}

func TestSelectSpace(t *testing.T) {
	require.NoError(t, InitializeWithFile(writeConfig(t, twoSpaces)))

	s, err := SelectSpace("docs")
	require.NoError(t, err)
	assert.Equal(t, "mnopqrstuvwx", s.SpaceID)

	s, err = SelectSpace("abcdefghijkl")
	require.NoError(t, err)
	assert.Equal(t, "blog", s.Name)

	_, err = SelectSpace("")
	assert.ErrorContains(t, err, "multiple spaces configured")

	_, err = SelectSpace("shop")
	assert.ErrorContains(t, err, `no space named "shop"`)

	Set("space", "blog")
	s, err = SelectSpace("")
	require.NoError(t, err)
	assert.Equal(t, "blog", s.Name)
}

func TestSelectSpaceTokenOverride(t *testing.T) {
	require.NoError(t, InitializeWithFile(writeConfig(t, twoSpaces)))
	t.Setenv("CFU_MANAGEMENT_TOKEN", "CFPAT-env")

	s, err := SelectSpace("blog")
	require.NoError(t, err)
	assert.Equal(t, "CFPAT-env", s.ManagementToken)

	// The loaded list is untouched.
	spaces, err := Spaces()
	require.NoError(t, err)
	assert.Equal(t, "CFPAT-blog", spaces[0].ManagementToken)
}

func TestSelectSpaceWithoutConfig(t *testing.T) {
	require.NoError(t, InitializeWithFile(filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := SelectSpace("")
	assert.ErrorContains(t, err, "no spaces configured")

	s, err := SelectSpace("abcdefghijkl")
	require.NoError(t, err)
	assert.Equal(t, "abcdefghijkl", s.SpaceID)
	assert.Empty(t, s.ManagementToken)
}

func TestSelectSpaceSingle(t *testing.T) {
	require.NoError(t, InitializeWithFile(writeConfig(t, "spaces:\n  - {name: only, space-id: abcdefghijkl}\n")))
	s, err := SelectSpace("")
	require.NoError(t, err)
	assert.Equal(t, "only", s.Name)
}
