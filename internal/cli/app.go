package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/config"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/filex"
	"github.com/dmitrijs2005/gophjournal/internal/inbox"
	"github.com/dmitrijs2005/gophjournal/internal/insight"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/mediastore"
	"github.com/dmitrijs2005/gophjournal/internal/repositories/metadata"
	"github.com/dmitrijs2005/gophjournal/internal/services"
	"github.com/dmitrijs2005/gophjournal/internal/storage"
	"github.com/dmitrijs2005/gophjournal/internal/transfer"
)

const unlockAttempts = 3

type App struct {
	config *config.Config
	log    logging.Logger

	db         *sql.DB
	session    *cryptox.Session
	encryption services.EncryptionService
	entries    services.EntryService
	search     services.SearchService
	insights   services.InsightService
	summarizer insight.Summarizer
	media      *mediastore.Store
	transfer   *transfer.Reconciler
	inbox      *inbox.Watcher

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	// list paging state for "more"
	cursor  time.Time
	listTag string
	listed  bool
}

// NewApp opens the journal under cfg.DataDir and wires every service.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	dataDir, err := filex.EnsureDir("", cfg.DataDir)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DatabaseFile
	if dsn != ":memory:" {
		if dsn, err = filex.ResolvePath(dataDir, dsn); err != nil {
			return nil, err
		}
	}

	db, err := storage.InitDatabase(ctx, dsn)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	media, err := mediastore.New(ctx, mediastore.Options{
		Backend: cfg.MediaBackend,
		Root:    dataDir,
		S3: mediastore.S3Options{
			Bucket:       cfg.S3.Bucket,
			Region:       cfg.S3.Region,
			BaseEndpoint: cfg.S3.BaseEndpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
		},
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config:  cfg,
		log:     log,
		db:      db,
		session: cryptox.NewSession(),
		media:   media,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		now:     time.Now,
	}
	a.wire(cfg)

	if cfg.InboxDir != "" {
		dir, err := filex.EnsureDir(dataDir, cfg.InboxDir)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.inbox = inbox.New(dir, a.transfer, log).WithLedger(metadata.NewSQLiteRepository(db))
	}

	return a, nil
}

// wire builds the services over a.db, a.session and a.media.
func (a *App) wire(cfg *config.Config) {
	a.encryption = services.NewEncryptionService(a.db, a.session, a.log)
	a.entries = services.NewEntryService(a.db, a.session, a.log, services.WithMediaStore(a.media))
	a.search = services.NewSearchService(a.entries, cfg.SearchRefreshDelay, a.log)

	var analyzer insight.Analyzer
	if cfg.Insight.Enabled {
		client := insight.NewOpenAIClient(insight.Options{
			BaseURL: cfg.Insight.BaseURL,
			Model:   cfg.Insight.Model,
			APIKey:  cfg.Insight.APIKey,
		})
		analyzer = client
		a.summarizer = client
	}
	a.insights = services.NewInsightService(a.entries, analyzer, a.log)

	a.transfer = transfer.NewReconciler(a.entries, a.media, a.log)
}

// Run unlocks the journal if needed, starts the inbox watcher and reads
// commands from stdin until exit or EOF.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to your journal (type 'help' for commands)")

	if err := a.unlockAtStartup(ctx); err != nil {
		printlnFn("Continuing locked:", err)
	}
	if !a.media.IsSupported() {
		printlnFn("Warning: media storage is unavailable, attachments will not outlive this session")
	}

	if a.inbox != nil {
		if err := a.inbox.Start(ctx); err != nil {
			a.log.Error(ctx, "inbox watcher failed to start", "error", err)
		} else {
			go a.reportInbox(ctx)
		}
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))
}

// Close stops background work and closes the database.
func (a *App) Close() {
	if a.inbox != nil {
		_ = a.inbox.Stop()
	}
	a.session.Lock()
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) status() string {
	ctx := context.Background()
	st, err := a.encryption.Status(ctx)
	if err != nil || !st.Enabled {
		return ""
	}
	if a.encryption.Unlocked() {
		return "(unlocked)"
	}
	return "(locked)"
}

func (a *App) unlockAtStartup(ctx context.Context) error {
	st, err := a.encryption.Status(ctx)
	if err != nil {
		return err
	}
	if !st.Enabled || a.encryption.Unlocked() {
		return nil
	}

	for i := 0; i < unlockAttempts; i++ {
		err = a.unlock(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrIncorrectPassphrase) {
			return err
		}
		if st.Hint != "" {
			printlnFn("Hint:", st.Hint)
		}
	}
	return err
}

func (a *App) reportInbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-a.inbox.Reports():
			if !ok {
				return
			}
			if r.Duplicate {
				continue
			}
			name := filepath.Base(r.Path)
			if r.Err != nil {
				printlnFn(fmt.Sprintf("\nInbox: %s could not be imported: %v", name, r.Err))
				continue
			}
			printlnFn(fmt.Sprintf("\nInbox: %s imported %d, skipped %d, errors %d",
				name, r.Result.Imported, r.Result.Skipped, r.Result.Errors))
		}
	}
}
