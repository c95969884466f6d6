package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Kind  string `json:"kind" validate:"oneof=a b"`
	URL   string `json:"url" validate:"required,url"`
	Items []item `json:"items" validate:"dive"`
}

type item struct {
	Path string `json:"path" validate:"required"`
}

func TestValidate(t *testing.T) {
	ok := sample{Name: "x", Kind: "a", URL: "http://legacy:8080", Items: []item{{Path: "/"}}}
	assert.NoError(t, Validate("sample", ok))

	bad := sample{Kind: "c", URL: "not a url", Items: []item{{}}}
	err := Validate("sample", bad)
	require.Error(t, err)

	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "sample", ierr.Artifact)
	assert.Contains(t, ierr.Problems, "name is required")
	assert.Contains(t, ierr.Problems, "items[0].path is required")
	assert.Contains(t, err.Error(), "kind must be one of [a b]")
	assert.Contains(t, err.Error(), "url must be a URL")
}

func TestLoadInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: demo
kind: b
url: http://modern:3000
items:
  - path: /api
  - path: /health
`), 0644))

	var s sample
	require.NoError(t, LoadInput(path, &s))

	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, "http://modern:3000", s.URL)
	require.Len(t, s.Items, 2)
	assert.Equal(t, "/health", s.Items[1].Path)
	assert.NoError(t, Validate("sample", s))
}

func TestLoadInputMissing(t *testing.T) {
	var s sample
	assert.Error(t, LoadInput(filepath.Join(t.TempDir(), "nope.json"), &s))
}
