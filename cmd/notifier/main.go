package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"polynotify/config"
	"polynotify/internal/format"
	"polynotify/internal/monitor"
	"polynotify/logger"
	"polynotify/pkg/polymarket"
	"polynotify/pkg/storage/journal"
	"polynotify/pkg/telegram"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Signals are caught from the very start so that shutdown during startup still exits 0.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// viper config
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		return 1
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := cfg.ResolveCredentials(ctx); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		return 1
	}

	loc := cfg.Monitor.Location()

	var notifier monitor.Notifier = telegram.NewClient(
		cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Timeout, log,
	)

	// optional delivery journal
	if cfg.Journal.Enabled {
		if jc := openJournal(ctx, cfg.Journal, cfg.Environment, log); jc != nil {
			defer jc.Close()
			notifier = journal.NewRecordingNotifier(notifier, jc, log)
		}
	}

	auth := polymarket.Auth{
		APIKey:     cfg.Polymarket.APIKey,
		Secret:     cfg.Polymarket.APISecret,
		Passphrase: cfg.Polymarket.APIPassphrase,
	}

	log.Info("starting polymarket monitor",
		zap.String("api_key", auth.MaskedKey()),
		zap.String("chat_id", cfg.Telegram.ChatID),
		zap.String("url", cfg.Polymarket.WS.URL),
	)

	startupCtx, cancelStartup := context.WithTimeout(ctx, cfg.Telegram.Timeout)
	notifier.Send(startupCtx, format.Startup(time.Now(), loc))
	cancelStartup()

	if ctx.Err() != nil {
		return 0
	}

	dialer := polymarket.NewDialer(polymarket.DialerConfig{
		URL:              cfg.Polymarket.WS.URL,
		HandshakeTimeout: cfg.Polymarket.WS.HandshakeTimeout,
		WriteTimeout:     cfg.Polymarket.WS.WriteTimeout,
		ReadTimeout:      cfg.Polymarket.WS.ReadTimeout,
		BufferSize:       cfg.Polymarket.WS.BufferSize,
	}, log)

	mgr := monitor.NewManager(monitor.Config{
		Auth:                 auth,
		HeartbeatInterval:    cfg.Monitor.HeartbeatInterval,
		ReconnectDelay:       cfg.Monitor.ReconnectDelay,
		MaxReconnectAttempts: cfg.Monitor.MaxReconnectAttempts,
		NotifyTimeout:        cfg.Monitor.NotifyTimeout,
		Location:             loc,
	}, monitor.NewPolymarketDialer(dialer), notifier, log)

	if err := mgr.Start(ctx); err != nil {
		log.Error("failed to start monitor", zap.Error(err))
		return 1
	}

	// A manager that gave up stays halted until the process is restarted.
	<-ctx.Done()
	mgr.Stop()

	return 0
}

// openJournal opens the delivery journal and runs startup maintenance. It
// returns nil when the journal cannot be used; notifications go out regardless.
func openJournal(ctx context.Context, cfg config.JournalConfig, env string, log *zap.Logger) *journal.Client {
	jc, err := journal.Open(cfg, env)
	if err != nil {
		log.Error("journal unavailable, continuing without it", zap.Error(err))
		return nil
	}

	maintainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sum, err := jc.Maintain(maintainCtx, cfg.Retention, time.Now())
	if errors.Is(err, journal.ErrUnhealthy) {
		log.Error("journal unhealthy, continuing without it", zap.Error(err))
		_ = jc.Close()
		return nil
	}
	if err != nil {
		log.Warn("journal maintenance failed", zap.Error(err))
		return jc
	}

	log.Info("journal ready",
		zap.String("driver", cfg.Driver),
		zap.Int64("pruned", sum.Pruned),
		zap.Int64("failed_deliveries", sum.Failed),
		zap.Time("last_sent_at", sum.LastSentAt),
		zap.Duration("retention", cfg.Retention),
	)
	return jc
}
