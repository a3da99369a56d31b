// Package inbox watches a directory and imports journal files dropped into
// it. Files already present when the watcher starts are scanned too.
//
// A file's content hash is recorded in a Ledger after a successful import,
// and content seen before is not imported again. Sections without a dated
// heading get a fresh createdAt on every import, so the merge alone would
// duplicate them.
package inbox

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/transfer"
	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/blake3"
)

// DefaultSettle is how long a file must stay quiet before it is imported.
const DefaultSettle = 250 * time.Millisecond

// Importer imports one file.
type Importer interface {
	ImportFile(ctx context.Context, path string) (transfer.ImportResult, error)
}

// Ledger remembers imported content. metadata.Repository satisfies it.
type Ledger interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Report describes the outcome of one import attempt. Duplicate is set when
// the content was imported before and the file was skipped.
type Report struct {
	Path      string
	Result    transfer.ImportResult
	Err       error
	Duplicate bool
}

// Watcher imports supported files from one directory.
type Watcher struct {
	dir    string
	imp    Importer
	ledger Ledger
	log    logging.Logger
	settle time.Duration

	fsw     *fsnotify.Watcher
	reports chan Report
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
	pending map[string]func(func())
}

func New(dir string, imp Importer, log logging.Logger) *Watcher {
	return &Watcher{
		dir:     dir,
		imp:     imp,
		log:     log,
		settle:  DefaultSettle,
		reports: make(chan Report, 64),
		pending: map[string]func(func()){},
	}
}

// WithLedger enables content dedup across events and restarts.
func (w *Watcher) WithLedger(l Ledger) *Watcher {
	w.ledger = l
	return w
}

// ledgerKey names the metadata row for a file's content.
func ledgerKey(data []byte) string {
	sum := blake3.Sum256(data)
	return "inbox." + hex.EncodeToString(sum[:])
}

// WithSettle overrides DefaultSettle.
func (w *Watcher) WithSettle(d time.Duration) *Watcher {
	w.settle = d
	return w
}

// Reports delivers one Report per import attempt. Reports are dropped when
// nobody reads them.
func (w *Watcher) Reports() <-chan Report {
	return w.reports
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".md", ".markdown", ".txt":
		return true
	}
	return false
}

// Start creates the directory if needed, imports what is already there and
// begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("inbox watcher already running")
	}

	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("create inbox %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch inbox %s: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.running = true

	existing, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn(ctx, "inbox scan failed", "dir", w.dir, "error", err)
	}
	for _, de := range existing {
		if !de.IsDir() && Supported(de.Name()) {
			w.schedule(ctx, filepath.Join(w.dir, de.Name()))
		}
	}

	w.wg.Add(1)
	go w.loop(ctx)

	w.log.Info(ctx, "inbox watcher started", "dir", w.dir)
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if Supported(ev.Name) {
				w.mu.Lock()
				w.schedule(ctx, ev.Name)
				w.mu.Unlock()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, "inbox watch error", "error", err)
		}
	}
}

// schedule imports path once it has been quiet for the settle period.
// Callers hold w.mu.
func (w *Watcher) schedule(ctx context.Context, path string) {
	d, ok := w.pending[path]
	if !ok {
		d = debounce.New(w.settle)
		w.pending[path] = d
	}
	d(func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.importFile(ctx, path)
	})
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	var key string
	if w.ledger != nil {
		data, err := os.ReadFile(path)
		if err != nil {
			w.report(Report{Path: path, Err: fmt.Errorf("read %s: %w", path, err)})
			return
		}
		key = ledgerKey(data)
		seen, err := w.ledger.Get(ctx, key)
		if err != nil {
			w.log.Warn(ctx, "inbox ledger lookup failed", "path", path, "error", err)
		} else if seen != nil {
			w.log.Debug(ctx, "inbox file already imported", "path", path)
			w.report(Report{Path: path, Duplicate: true})
			return
		}
	}

	res, err := w.imp.ImportFile(ctx, path)
	if err != nil {
		w.log.Warn(ctx, "inbox import failed", "path", path, "error", err)
	} else {
		w.log.Info(ctx, "inbox import", "path", path,
			"imported", res.Imported, "skipped", res.Skipped, "errors", res.Errors)
		if key != "" {
			stamp := []byte(time.Now().UTC().Format(time.RFC3339))
			if lerr := w.ledger.Set(ctx, key, stamp); lerr != nil {
				w.log.Warn(ctx, "inbox ledger update failed", "path", path, "error", lerr)
			}
		}
	}

	w.report(Report{Path: path, Result: res, Err: err})
}

func (w *Watcher) report(r Report) {
	select {
	case w.reports <- r:
	default:
	}
}
