package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/stripnbsp/internal/db"
	"github.com/mithrel/stripnbsp/internal/engine"
	"github.com/mithrel/stripnbsp/internal/plugin"
	"github.com/mithrel/stripnbsp/pkg/api"
)

const (
	dirty = "# Notes\u00a0\n\n\u00a0\u00a0\n  \u00a0- item\n"
	clean = "# Notes\n\n\n  - item\n"
)

func newPipeline() *Pipeline {
	return New(plugin.Wrap(engine.New(engine.DefaultConfig())), nil)
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestFormatText(t *testing.T) {
	p := newPipeline()
	out, err := p.Format(dirty, api.Options{})
	require.NoError(t, err)
	assert.Equal(t, clean, out)

	html, err := p.Format(dirty, api.Options{Printer: "html"})
	require.NoError(t, err)
	assert.Contains(t, html, "<li>item</li>")
}

func TestFormatPropagatesParserErrors(t *testing.T) {
	p := newPipeline()
	_, err := p.Format("\xff", api.Options{Filepath: "x.md"})
	require.ErrorIs(t, err, engine.ErrInvalidEncoding)
}

func TestParserFor(t *testing.T) {
	p := newPipeline()

	for _, path := range []string{"a.md", "docs/B.MARKDOWN", "README", "", "x.mkdn"} {
		name, err := p.ParserFor(path, "")
		require.NoError(t, err, path)
		assert.Equal(t, "markdown", name)
	}

	_, err := p.ParserFor("main.go", "")
	require.ErrorIs(t, err, ErrNoParser)

	name, err := p.ParserFor("main.go", "markdown")
	require.NoError(t, err)
	assert.Equal(t, "markdown", name)

	_, err = p.ParserFor("a.md", "markdwn")
	require.ErrorIs(t, err, ErrNoParser)
	assert.Contains(t, err.Error(), `did you mean "markdown"`)
}

func TestUnknownPrinter(t *testing.T) {
	p := newPipeline()
	_, err := p.Format("x", api.Options{Printer: "htm"})
	require.ErrorIs(t, err, ErrNoPrinter)
	assert.Contains(t, err.Error(), `did you mean "html"`)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), "a", 0o644)
	writeFile(t, filepath.Join(dir, "sub", "b.markdown"), "b", 0o644)
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "c", 0o644)
	writeFile(t, filepath.Join(dir, ".git", "d.md"), "d", 0o644)
	writeFile(t, filepath.Join(dir, "node_modules", "e.md"), "e", 0o644)
	explicit := filepath.Join(dir, "sub", "c.txt")

	p := newPipeline()
	files, err := p.Expand([]string{dir, explicit, filepath.Join(dir, "a.md")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "sub", "b.markdown"),
		explicit,
	}, files)

	_, err = p.Expand([]string{filepath.Join(dir, "missing.md")})
	require.Error(t, err)
}

func TestRunCheckAndWrite(t *testing.T) {
	dir := t.TempDir()
	dirtyPath := filepath.Join(dir, "dirty.md")
	cleanPath := filepath.Join(dir, "clean.md")
	writeFile(t, dirtyPath, dirty, 0o640)
	writeFile(t, cleanPath, clean, 0o644)

	p := newPipeline()
	p.Jobs = 2

	results, err := p.Run(context.Background(), []string{dir}, RunOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	byPath := map[string]Result{}
	for _, r := range results {
		byPath[r.Path] = r
	}
	assert.True(t, byPath[dirtyPath].Changed)
	assert.False(t, byPath[dirtyPath].Written)
	assert.Equal(t, len(dirty)-len(clean), byPath[dirtyPath].Removed)
	assert.False(t, byPath[cleanPath].Changed)

	data, err := os.ReadFile(dirtyPath)
	require.NoError(t, err)
	assert.Equal(t, dirty, string(data), "check must not touch files")

	results, err = p.Run(context.Background(), []string{dirtyPath}, RunOptions{Write: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Written)

	data, err = os.ReadFile(dirtyPath)
	require.NoError(t, err)
	assert.Equal(t, clean, string(data))
	info, err := os.Stat(dirtyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestRunWriteNeedsMarkdownPrinter(t *testing.T) {
	p := newPipeline()
	_, err := p.Run(context.Background(), []string{"."}, RunOptions{
		Options: api.Options{Printer: "html"},
		Write:   true,
	})
	require.ErrorIs(t, err, ErrWriteNeedsMarkdown)
}

func TestRunCanceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.md"), dirty, 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPipeline().Run(ctx, []string{dir}, RunOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeFile(t, path, dirty, 0o644)

	cache, err := db.Open(context.Background(), "")
	require.NoError(t, err)
	p := newPipeline()
	p.Cache = cache

	// a changed, unwritten file is not recorded
	results, err := p.Run(context.Background(), []string{path}, RunOptions{})
	require.NoError(t, err)
	assert.False(t, results[0].Cached)
	_, err = cache.Get(context.Background(), path)
	require.ErrorIs(t, err, db.ErrNotFound)

	_, err = p.Run(context.Background(), []string{path}, RunOptions{Write: true})
	require.NoError(t, err)

	results, err = p.Run(context.Background(), []string{path}, RunOptions{})
	require.NoError(t, err)
	assert.True(t, results[0].Cached)
	assert.False(t, results[0].Changed)

	// editing the file invalidates the record
	writeFile(t, path, dirty, 0o644)
	results, err = p.Run(context.Background(), []string{path}, RunOptions{})
	require.NoError(t, err)
	assert.False(t, results[0].Cached)
	assert.True(t, results[0].Changed)
}

func TestRunWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	writeFile(t, path, dirty, 0o600)

	_, err := newPipeline().Run(context.Background(), []string{dir}, RunOptions{Write: true})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.md", entries[0].Name())
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRunForgetsStaleCacheRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	writeFile(t, path, clean, 0o644)

	cache, err := db.Open(ctx, "")
	require.NoError(t, err)
	p := newPipeline()
	p.Cache = cache

	_, err = p.Run(ctx, []string{path}, RunOptions{})
	require.NoError(t, err)
	rec, err := cache.Get(ctx, path)
	require.NoError(t, err)
	assert.False(t, rec.UpdatedAt.IsZero())

	// the file regresses and is only checked
	writeFile(t, path, dirty, 0o644)
	_, err = p.Run(ctx, []string{path}, RunOptions{})
	require.NoError(t, err)
	_, err = cache.Get(ctx, path)
	require.ErrorIs(t, err, db.ErrNotFound)

	// a parse failure also drops the record
	writeFile(t, path, clean, 0o644)
	_, err = p.Run(ctx, []string{path}, RunOptions{})
	require.NoError(t, err)
	writeFile(t, path, "\xff", 0o644)
	_, err = p.Run(ctx, []string{path}, RunOptions{})
	require.ErrorIs(t, err, engine.ErrInvalidEncoding)
	_, err = cache.Get(ctx, path)
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestFormatLogsBlockCounts(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := New(plugin.Wrap(engine.New(engine.DefaultConfig())), log)

	_, err := p.Format(dirty, api.Options{Filepath: "notes.md"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=parsed")
	assert.Contains(t, buf.String(), "path=notes.md")
	assert.Contains(t, buf.String(), "headings=1")
	assert.Contains(t, buf.String(), "list_items=1")
}
