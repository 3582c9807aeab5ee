// ABOUTME: Tests for help document resolution and the Markdown build
// ABOUTME: Covers locale fallback order, misses, and rendered output layout

package help

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func writeDoc(t *testing.T, root, locale, name string) string {
	t.Helper()
	dir := filepath.Join(root, locale)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name+".html")
	require.NoError(t, os.WriteFile(path, []byte("<p>"+name+"</p>"), 0644))
	return path
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLocales(t *testing.T) {
	assert.Equal(t, []string{"fr", "en"}, Locales(language.French))
	assert.Equal(t, []string{"en"}, Locales(language.English))
	assert.Equal(t, []string{"fr-CA", "fr", "en"}, Locales(language.MustParse("fr-CA")))
}

func TestResolve_PreferredLocale(t *testing.T) {
	root := t.TempDir()
	fr := writeDoc(t, root, "fr", "macros")
	writeDoc(t, root, "en", "macros")

	path, ok := NewResolver(root, nil).Resolve("macros", language.French)
	require.True(t, ok)
	assert.Equal(t, fr, path)
}

func TestResolve_FallsBackToEnglish(t *testing.T) {
	root := t.TempDir()
	en := writeDoc(t, root, "en", "macros")

	path, ok := NewResolver(root, nil).Resolve("macros", language.French)
	require.True(t, ok)
	assert.Equal(t, en, path)
}

func TestResolve_RegionFallsBackToBase(t *testing.T) {
	root := t.TempDir()
	fr := writeDoc(t, root, "fr", "aliases")
	writeDoc(t, root, "en", "aliases")

	path, ok := NewResolver(root, nil).Resolve("aliases", language.MustParse("fr-CA"))
	require.True(t, ok)
	assert.Equal(t, fr, path)
}

func TestResolve_NotFound(t *testing.T) {
	var logs bytes.Buffer
	r := NewResolver(t.TempDir(), debugLogger(&logs))

	path, ok := r.Resolve("macros", language.French)
	assert.False(t, ok)
	assert.Empty(t, path)
	assert.Contains(t, logs.String(), "level=DEBUG")
	assert.Contains(t, logs.String(), "help document not found")
	assert.Contains(t, logs.String(), "[fr en]")
}

func TestResolve_IgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fr", "macros.html"), 0755))
	en := writeDoc(t, root, "en", "macros")

	path, ok := NewResolver(root, nil).Resolve("macros", language.French)
	require.True(t, ok)
	assert.Equal(t, en, path)
}

func TestBuild(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "en"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "fr"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "en", "macros.md"), []byte("# Macros\n\nBind keys."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "fr", "macros.md"), []byte("# Macros\n\nRaccourcis."), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "fr", "notes.txt"), []byte("skip"), 0644))

	n, err := Build(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(filepath.Join(dst, "fr", "macros.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<html lang="fr">`)
	assert.Contains(t, string(data), "<h1>Macros</h1>")
	assert.Contains(t, string(data), "<p>Raccourcis.</p>")

	path, ok := NewResolver(dst, nil).Resolve("macros", language.German)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dst, "en", "macros.html"), path)
}

func TestBuild_MissingSource(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.Error(t, err)
}
