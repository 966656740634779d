// Package workspace wires a project directory to a ready study service:
// data dir, .env, config, log files, storage backend and the loaded deck.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kingrea/shunkan/internal/config"
	"github.com/kingrea/shunkan/internal/logbook"
	"github.com/kingrea/shunkan/internal/logging"
	"github.com/kingrea/shunkan/internal/resolver"
	"github.com/kingrea/shunkan/internal/session"
	"github.com/kingrea/shunkan/internal/storage"
	"github.com/kingrea/shunkan/internal/study"
)

// Workspace holds everything a front end needs for one project.
type Workspace struct {
	Config    *config.Config
	Logger    *logging.Logger
	Journal   *logbook.Logbook
	Repo      storage.Repository
	Service   *study.Service
	SessionID string
}

// Open prepares the data directory under projectDir, loads configuration and
// returns a workspace whose service has already been loaded. origin names
// the front end in the log.
func Open(ctx context.Context, projectDir, origin string, opts ...study.Option) (*Workspace, error) {
	if err := loadEnv(config.ResolveDataDir(projectDir)); err != nil {
		return nil, err
	}
	if err := config.InitDataDir(projectDir); err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogPath(), cfg.Log)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	log := logger.With("session", sessionID, "origin", origin)

	journal, err := logbook.New(cfg.JournalPath(), sessionID)
	if err != nil {
		logger.Close()
		return nil, err
	}

	repo, err := storage.Open(ctx, storage.Backend(cfg.Storage.Backend), cfg.StateDir(), cfg.SQLitePath())
	if err != nil {
		log.Error("open storage", "backend", cfg.Storage.Backend, "err", err)
		logger.Close()
		return nil, err
	}

	base := []study.Option{
		study.WithPolicy(cfg.SRS.Policy()),
		study.WithTimerSeconds(cfg.Study.TimerSeconds),
		study.WithDefaults(resolver.Level(cfg.Study.Level), session.Direction(cfg.Study.Direction), cfg.Study.TimerEnabled),
		study.WithSheet(cfg.Study.Sheet),
		study.WithLogger(log),
		study.WithJournal(journal),
	}
	svc := study.New(repo, append(base, opts...)...)
	if err := svc.Load(ctx); err != nil {
		log.Error("load deck", "err", err)
		_ = repo.Close()
		logger.Close()
		return nil, err
	}
	log.Info("workspace opened", "data_dir", cfg.DataDir, "backend", cfg.Storage.Backend)

	return &Workspace{
		Config:    cfg,
		Logger:    logger,
		Journal:   journal,
		Repo:      repo,
		Service:   svc,
		SessionID: sessionID,
	}, nil
}

// Close stops any countdown and releases the storage backend and log file.
func (w *Workspace) Close() error {
	if w == nil {
		return nil
	}
	w.Service.CancelCountdown()
	return errors.Join(w.Repo.Close(), w.Logger.Close())
}

// loadEnv reads dataDir/.env when present. Variables already set in the
// process environment win.
func loadEnv(dataDir string) error {
	path := (&config.Config{DataDir: dataDir}).EnvPath()
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("workspace: load %s: %w", path, err)
	}
	return nil
}
