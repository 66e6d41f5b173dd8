package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitalvas/typeschema/catalog"
	"github.com/vitalvas/typeschema/openapi"
)

// watchDebounce collapses the burst of events editors emit for one save.
const watchDebounce = 200 * time.Millisecond

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the OpenAPI document",
		Long: `Generate the OpenAPI document for the configured sources.

The format follows --format, else the --output extension, else JSON.
With --watch the document is regenerated whenever a catalog file or a Go
file in a scanned directory changes, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Watch {
				return a.watch(cmd.Context(), cmd.OutOrStdout())
			}
			return a.generate(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "output file (default: stdout)")
	f.StringP("format", "f", "", "output format: json or yaml")
	f.Bool("all-types", false, "emit every catalog type as a component")
	f.BoolP("watch", "w", false, "regenerate on source changes")

	return cmd
}

// outputFormat picks the document encoding.
func (a *app) outputFormat() (catalog.Format, error) {
	format := catalog.Format(strings.ToLower(a.cfg.Format))
	if format == "" {
		format = catalog.FormatJSON
		if ext, err := catalog.FormatOf(a.cfg.Output); err == nil && ext == catalog.FormatYAML {
			format = catalog.FormatYAML
		}
	}

	switch format {
	case catalog.FormatJSON, catalog.FormatYAML:
		return format, nil
	}
	return "", errors.Newf("unsupported output format %q", a.cfg.Format)
}

func encode(v any, format catalog.Format) ([]byte, error) {
	if format == catalog.FormatYAML {
		return openapi.EncodeYAML(v)
	}
	data, err := openapi.EncodeJSON(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (a *app) generate(stdout io.Writer) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}

	doc, err := a.buildDocument()
	if err != nil {
		return err
	}

	data, err := encode(doc, format)
	if err != nil {
		return err
	}

	if a.cfg.Output == "" {
		_, err := stdout.Write(data)
		return err
	}

	if err := os.WriteFile(a.cfg.Output, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", a.cfg.Output)
	}

	a.logger.Info("document written",
		zap.String("output", a.cfg.Output),
		zap.Int("paths", len(doc.Paths)),
	)
	return nil
}

// watchSet decides which file events trigger a regeneration.
type watchSet struct {
	files map[string]bool
	dirs  map[string]bool
}

func newWatchSet(catalogs, scan []string) (*watchSet, error) {
	ws := &watchSet{
		files: make(map[string]bool, len(catalogs)),
		dirs:  make(map[string]bool, len(scan)),
	}

	for _, path := range catalogs {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.Wrapf(err, "watch %s", path)
		}
		ws.files[abs] = true
	}
	for _, dir := range scan {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "watch %s", dir)
		}
		ws.dirs[abs] = true
	}

	return ws, nil
}

// paths returns the directories to watch. Catalog files are watched via
// their directory so that editors replacing the file are noticed.
func (ws *watchSet) paths() []string {
	seen := make(map[string]bool)
	var out []string

	add := func(dir string) {
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}

	for file := range ws.files {
		add(filepath.Dir(file))
	}
	for dir := range ws.dirs {
		add(dir)
	}
	return out
}

func (ws *watchSet) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if ws.files[abs] {
		return true
	}

	base := filepath.Base(abs)
	return ws.dirs[filepath.Dir(abs)] &&
		strings.HasSuffix(base, ".go") &&
		!strings.HasSuffix(base, "_test.go")
}

// watch generates once, then again after every relevant change until ctx
// is done. Failed runs are logged and do not stop watching.
func (a *app) watch(ctx context.Context, stdout io.Writer) error {
	ws, err := newWatchSet(a.cfg.Catalogs, a.cfg.Scan)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	for _, path := range ws.paths() {
		if err := watcher.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
	}

	run := func() {
		if err := a.generate(stdout); err != nil {
			a.logger.Error("generation failed", zap.Error(err))
		}
	}
	run()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if !ws.relevant(event.Name) {
				continue
			}

			a.logger.Debug("source changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			run()
		}
	}
}
