package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/dialect/sql"
	"github.com/syssam/querycraft/internal/config"
	"github.com/syssam/querycraft/internal/stmtfile"
)

// watchDebounce delays re-rendering until a burst of writes settles.
const watchDebounce = 100 * time.Millisecond

func newRenderCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "render FILE...",
		Short: "Render statement files to SQL",
		Long: `Render every statement of the given YAML files into SQL for the
configured dialect and print it with its bound parameters.`,
		Example: `  qcraft render queries/users.yaml
  qcraft render -d mysql queries/*.yaml
  qcraft render -o json queries/users.yaml
  qcraft render --watch queries/users.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			r, err := newRenderer(cfg)
			if err != nil {
				return err
			}
			if !watch {
				return r.run(cmd.Context(), cmd.OutOrStdout(), args)
			}
			return r.watch(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when a file changes")
	return cmd
}

// renderer renders statement files through a shared cache.
type renderer struct {
	cfg *config.Config
	cr  *sql.CachedRenderer
	mu  sync.Mutex // serializes output
}

func newRenderer(cfg *config.Config) (*renderer, error) {
	base, err := sql.For(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	cache, err := sql.NewLRUCache(cfg.Cache.Size)
	if err != nil {
		return nil, err
	}
	return &renderer{
		cfg: cfg,
		cr:  sql.NewCachedRenderer(base, sql.WithCache(cache), sql.WithTTL(cfg.Cache.TTL)),
	}, nil
}

// rendered is one rendered statement.
type rendered struct {
	File    string `json:"file"`
	Name    string `json:"name,omitempty"`
	Version int    `json:"version,omitempty"`
	Kind    string `json:"kind"`
	SQL     string `json:"sql"`
	Args    []any  `json:"args"`
}

// run renders files concurrently and prints the results in file order.
// Nothing is printed when a file fails; the error reports every failed
// file.
func (r *renderer) run(ctx context.Context, w io.Writer, files []string) error {
	results := make([][]rendered, len(files))
	errs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			results[i], errs[i] = r.renderFile(ctx, file)
			return nil
		})
	}
	_ = g.Wait()
	if err := querycraft.NewAggregateError(errs...); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []rendered
	for _, rs := range results {
		all = append(all, rs...)
	}
	if r.cfg.Output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}
	for _, rs := range all {
		printRendered(w, rs)
	}
	return nil
}

func (r *renderer) renderFile(ctx context.Context, file string) ([]rendered, error) {
	docs, err := stmtfile.ReadFile(file)
	if err != nil {
		return nil, err
	}
	log := config.LoggerFrom(ctx)
	out := make([]rendered, 0, len(docs))
	for i, doc := range docs {
		name := doc.Name
		if name == "" {
			name = filepath.Base(file) + "#" + strconv.Itoa(i)
		}
		stmt, err := doc.Statement()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		q, err := r.cr.RenderCached(ctx, r.cr.Key(name, doc.Version), stmt)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", file, name, err)
		}
		log.Debug("rendered statement", "file", file, "name", name, "kind", stmt.Kind(), "args", len(q.Args))
		out = append(out, rendered{
			File:    file,
			Name:    doc.Name,
			Version: doc.Version,
			Kind:    stmt.Kind(),
			SQL:     q.SQL,
			Args:    q.Args,
		})
	}
	return out, nil
}

func printRendered(w io.Writer, rs rendered) {
	header := rs.File
	if rs.Name != "" {
		header = fmt.Sprintf("%s v%d (%s)", rs.Name, rs.Version, rs.File)
	}
	fmt.Fprintf(w, "-- %s\n%s;\n", header, rs.SQL)
	if len(rs.Args) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Value", "Type"})
		for i, a := range rs.Args {
			t.AppendRow(table.Row{i + 1, a, fmt.Sprintf("%T", a)})
		}
		t.Render()
	}
	fmt.Fprintln(w)
}

// watch renders files, then renders them again after every change until
// ctx is done. Render errors are logged instead of returned.
func (r *renderer) watch(ctx context.Context, w io.Writer, files []string) error {
	log := config.LoggerFrom(ctx)
	rerender := func() {
		// Changed files keep their names and versions.
		if err := r.cr.Purge(ctx); err != nil {
			log.Warn("purge render cache", "error", err)
		}
		if err := r.run(ctx, w, files); err != nil {
			log.Error("render failed", "error", err)
		}
	}
	if err := r.run(ctx, w, files); err != nil {
		log.Error("render failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Watch directories so files replaced by editors stay watched.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	log.Info("watching for changes", "files", len(files))

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			log.Debug("file changed", "file", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, rerender)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}
