package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"FundReview/internal/bot"
	"FundReview/internal/httpapi"
	"FundReview/internal/notifier"
	"FundReview/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var digestOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the Telegram bot and the daily digest",
	Args:  cobra.NoArgs,
	RunE:  withApp(runServe),
}

func init() {
	serveCmd.Flags().BoolVar(&digestOnStart, "digest-now", false, "send the digest once at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(a *app, cmd *cobra.Command, _ []string) error {
	log := a.log

	// One server per database file.
	lock := flock.New(a.cfg.Database.SQLitePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("another fundreview server holds %s", lock.Path())
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// HTTP API
	if !a.cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(a.ctrl, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			stop()
		}
	}()

	// Telegram bot
	var sender notifier.Sender
	if a.cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID,
			a.cfg.Telegram.APIBase, a.cfg.Proxy, log)
		sender = tn
		handler := bot.NewHandler(a.ctrl, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			tn.StartPolling(ctx, handler.HandleCommand)
		}()
		log.Info("telegram polling started")
	} else {
		log.Info("telegram not configured, bot and digest delivery disabled")
	}

	// Digest
	sched := scheduler.NewScheduler(ctx, a.ctrl, sender, a.cfg.StaleDays(), log)
	if err := sched.RegisterAll(a.cfg.Schedule.DigestCron); err != nil {
		stop()
		shutdown(srv, log)
		wg.Wait()
		return err
	}
	sched.Start()
	if digestOnStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.RunDigestNow()
		}()
	}

	log.Info("fundreview is running, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info("shutdown signal received, stopping")
	sched.Stop()
	shutdown(srv, log)
	wg.Wait()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	log.Info("fundreview stopped")
	return nil
}

func shutdown(srv *http.Server, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
