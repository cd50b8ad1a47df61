// Package pipeline is the host side of the formatter: it picks a parser for
// each input, parses, prints and optionally writes the result back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mithrel/stripnbsp/internal/db"
	"github.com/mithrel/stripnbsp/internal/engine"
	"github.com/mithrel/stripnbsp/internal/util"
	"github.com/mithrel/stripnbsp/pkg/api"
)

// DefaultPrinter is used when Options.Printer is empty.
const DefaultPrinter = "markdown"

var (
	ErrNoParser           = errors.New("no parser")
	ErrNoPrinter          = errors.New("no printer")
	ErrWriteNeedsMarkdown = errors.New("writing files requires the markdown printer")
)

// Result describes one formatted input.
type Result struct {
	Path    string `json:"path"`
	Parser  string `json:"parser"`
	Changed bool   `json:"changed"`
	Written bool   `json:"written,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
	Removed int    `json:"removed_bytes"`
	Output  string `json:"-"`
}

// RunOptions extend the parser options with host behavior.
type RunOptions struct {
	api.Options
	Write bool
}

// Pipeline drives a plugin over files. Cache is optional.
type Pipeline struct {
	Plugin api.Plugin
	Log    *slog.Logger
	Jobs   int
	Cache  db.Store
}

// New returns a pipeline running one job per CPU.
func New(p api.Plugin, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{Plugin: p, Log: log, Jobs: runtime.NumCPU()}
}

// ParserFor resolves the parser name for path. A non-empty override wins;
// otherwise the language owning the file extension or name decides. An empty
// path (stdin) falls back to the first declared language.
func (p *Pipeline) ParserFor(path, override string) (string, error) {
	if override != "" {
		if _, ok := p.Plugin.Parsers[override]; !ok {
			return "", p.unknown(ErrNoParser, override, util.Keys(p.Plugin.Parsers))
		}
		return override, nil
	}
	for _, lang := range p.Plugin.Languages {
		if len(lang.Parsers) == 0 {
			continue
		}
		if path == "" || matches(lang, path) {
			return lang.Parsers[0], nil
		}
	}
	return "", fmt.Errorf("%w for %s", ErrNoParser, path)
}

func matches(lang api.Language, path string) bool {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	return (ext != "" && slices.Contains(lang.Extensions, ext)) || slices.Contains(lang.Filenames, base)
}

func (p *Pipeline) printer(name string) (api.Printer, error) {
	if name == "" {
		name = DefaultPrinter
	}
	pr, ok := p.Plugin.Printers[name]
	if !ok {
		return nil, p.unknown(ErrNoPrinter, name, util.Keys(p.Plugin.Printers))
	}
	return pr, nil
}

func (p *Pipeline) unknown(kind error, name string, known []string) error {
	if s := util.Suggest(name, known, 1); len(s) > 0 {
		return fmt.Errorf("%w named %q (did you mean %q?)", kind, name, s[0])
	}
	return fmt.Errorf("%w named %q (available: %s)", kind, name, strings.Join(known, ", "))
}

// Format parses text and prints it with the selected printer. Parser errors
// are returned as the parser reported them.
func (p *Pipeline) Format(text string, opts api.Options) (string, error) {
	name, err := p.ParserFor(opts.Filepath, opts.Parser)
	if err != nil {
		return "", err
	}
	pr, err := p.printer(opts.Printer)
	if err != nil {
		return "", err
	}
	doc, err := p.Plugin.Parsers[name].Parse(text, p.Plugin.Parsers, opts)
	if err != nil {
		return "", err
	}
	if p.Log.Enabled(context.Background(), slog.LevelDebug) {
		st := engine.Count(doc)
		p.Log.Debug("parsed", "path", opts.Filepath, "headings", st.Headings,
			"lists", st.Lists, "list_items", st.ListItems)
	}
	var b strings.Builder
	if err := pr.Print(&b, doc, opts); err != nil {
		return "", fmt.Errorf("print %s: %w", name, err)
	}
	return b.String(), nil
}

func cacheable(opts RunOptions) bool {
	return opts.Printer == "" || opts.Printer == DefaultPrinter
}

// FormatFile formats one file. With opts.Write, changed content replaces
// the file, keeping its permissions.
func (p *Pipeline) FormatFile(ctx context.Context, path string, opts RunOptions) (Result, error) {
	res := Result{Path: path}
	name, err := p.ParserFor(path, opts.Parser)
	if err != nil {
		return res, err
	}
	res.Parser = name

	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}

	useCache := p.Cache != nil && cacheable(opts)
	if useCache {
		rec, err := p.Cache.Get(ctx, path)
		switch {
		case err == nil && rec.Digest == db.Digest(data, name):
			p.Log.Debug("cache hit", "path", path, "formatted_at", rec.UpdatedAt)
			res.Cached = true
			res.Output = string(data)
			return res, nil
		case err != nil && !errors.Is(err, db.ErrNotFound):
			return res, fmt.Errorf("cache lookup %s: %w", path, err)
		}
	}

	o := opts.Options
	o.Filepath = path
	o.Parser = name
	out, err := p.Format(string(data), o)
	if err != nil {
		if useCache {
			p.forget(ctx, path)
		}
		return res, err
	}
	res.Output = out
	res.Changed = out != string(data)
	if cacheable(opts) {
		res.Removed = len(data) - len(out)
	}
	p.Log.Debug("formatted", "path", path, "parser", name, "changed", res.Changed)

	if opts.Write && res.Changed {
		info, err := os.Stat(path)
		if err != nil {
			return res, err
		}
		if err := writeAtomic(path, []byte(out), info.Mode().Perm()); err != nil {
			return res, err
		}
		res.Written = true
		p.Log.Info("rewrote", "path", path, "removed_bytes", res.Removed)
	}

	switch {
	case !useCache:
	case !res.Changed || res.Written:
		rec := db.Record{Path: path, Digest: db.Digest([]byte(out), name), UpdatedAt: time.Now()}
		if err := p.Cache.Put(ctx, rec); err != nil {
			return res, fmt.Errorf("cache store %s: %w", path, err)
		}
	default:
		p.forget(ctx, path)
	}
	return res, nil
}

// forget drops the cache record of a file that no longer formats cleanly.
func (p *Pipeline) forget(ctx context.Context, path string) {
	if err := p.Cache.Delete(ctx, path); err != nil {
		p.Log.Warn("cache delete failed", "path", path, "err", err)
	}
}

// writeAtomic replaces path through a temp file in the same directory, so
// an interrupted write leaves the original intact.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Expand turns paths into files. Directories are walked for files a
// language claims; hidden directories and node_modules are skipped. Files
// named explicitly are kept whatever their extension.
func (p *Pipeline) Expand(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(f string) {
		f = filepath.Clean(f)
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			if p.known(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Pipeline) known(path string) bool {
	for _, lang := range p.Plugin.Languages {
		if matches(lang, path) {
			return true
		}
	}
	return false
}

// Run formats every file under paths, Jobs at a time. Results keep the
// order of the expanded file list.
func (p *Pipeline) Run(ctx context.Context, paths []string, opts RunOptions) ([]Result, error) {
	if opts.Write && !cacheable(opts) {
		return nil, ErrWriteNeedsMarkdown
	}
	if _, err := p.printer(opts.Printer); err != nil {
		return nil, err
	}
	files, err := p.Expand(paths)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if p.Jobs > 0 {
		g.SetLimit(p.Jobs)
	}
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := p.FormatFile(ctx, f, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
