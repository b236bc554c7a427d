// Package main provides the vaultbot binary entry point. It loads and
// validates configuration, opens the audit database, registers the Telegram
// webhook, and runs two scheduling domains side by side: the HTTP server
// accepting webhook pushes and the single-threaded update processor that
// owns the encrypted vault.
//
// The application flow:
//  1. Load configuration from VAULTBOT_* environment variables.
//  2. Ensure the data directory and open the SQLite audit database.
//  3. Build vault, gate, processor, bridge, and HTTP handler.
//  4. Start the processor, register the webhook, start the HTTP server.
//  5. On SIGINT/SIGTERM: stop accepting requests, drain the processor.
//
// It exits with a distinct non-zero status on configuration, data
// directory, or database failures.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kverch/vaultbot/internal/audit"
	"github.com/kverch/vaultbot/internal/auth"
	"github.com/kverch/vaultbot/internal/bot"
	"github.com/kverch/vaultbot/internal/bridge"
	"github.com/kverch/vaultbot/internal/config"
	"github.com/kverch/vaultbot/internal/httpx"
	"github.com/kverch/vaultbot/internal/telegram"
	"github.com/kverch/vaultbot/internal/vault"
)

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(2)
	}
	return cfg
}

func ensureDataDir(dir string) {
	if st, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
				slog.Error("failed to create data directory", "dir", dir, "err", mkErr)
				os.Exit(3)
			}
		} else {
			slog.Error("stat data directory", "dir", dir, "err", err)
			os.Exit(3)
		}
	} else if !st.IsDir() {
		slog.Error("data path not directory", "dir", dir)
		os.Exit(3)
	}
}

func openAuditLog(cfg *config.Config) (*sql.DB, *audit.Log) {
	db, err := sql.Open("sqlite3", cfg.AuditDBPath())
	if err != nil {
		slog.Error("open sqlite driver", "err", err)
		os.Exit(4)
	}
	log, err := audit.New(db)
	if err != nil {
		slog.Error("init audit schema", "err", err)
		os.Exit(4)
	}
	return db, log
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func run() error {
	cfg := loadConfig()
	ensureDataDir(cfg.DataDir)
	db, auditLog := openAuditLog(cfg)
	defer db.Close()

	store, err := vault.New(cfg.SnapshotPath(), cfg.FernetKey, cfg.StoreTimeout, slog.Default())
	if err != nil {
		return err
	}
	gate := auth.New(cfg.OwnerID, auditLog, slog.Default())
	client := telegram.New(nil, telegram.DefaultBaseURL, cfg.BotToken)
	proc := bot.New(store, gate, client, cfg.InboxSize, slog.Default())
	br := bridge.New(proc.Inbox(), proc.Ready(), proc.Done(), bridge.DefaultHandoffTimeout)
	handler := httpx.New(br, slog.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The processor outlives the signal context: it is stopped only after
	// the HTTP server has shut down, so every webhook acknowledged with a
	// 200 is still drained.
	procCtx, stopProc := context.WithCancel(context.Background())
	defer stopProc()
	go proc.Run(procCtx)

	webhookCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.SetWebhook(webhookCtx, cfg.WebhookURL()); err != nil {
		return err
	}
	slog.Info("webhook registered", "url", cfg.WebhookURL())

	srv := newServer(cfg, handler.Router())
	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.Addr, "pid", os.Getpid())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Stop accepting new webhook calls first, then let the processor drain
	// everything already accepted into its inbox.
	slog.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "err", err)
	}
	stopProc()
	<-proc.Done()
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
