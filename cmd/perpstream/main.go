package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IvanTurko/perpstream-go/config"
	"github.com/IvanTurko/perpstream-go/internal/logx"
	"github.com/IvanTurko/perpstream-go/mux"
	"github.com/IvanTurko/perpstream-go/stream"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "perpstream.yaml", "path to config file")
	statsEvery := flag.Duration("stats", time.Minute, "interval between stats log lines, 0 disables")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logx.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger, *statsEvery); err != nil {
		logger.Error("perpstream stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger, statsEvery time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := stream.NewFromConfig(cfg, logger,
		stream.WithOnDisconnect(func(err error) {
			logger.Warn("disconnected", zap.Error(err))
		}),
		stream.WithMuxOptions(
			mux.WithOnSendFailure(func(err error) {
				logger.Error("subscription request failed", zap.Error(err))
			}),
			mux.WithOnHandlerFault(func(channel string, err error) {
				logger.Error("handler fault", zap.String("channel", channel), zap.Error(err))
			}),
		),
	)
	logger.Info("starting perpstream",
		zap.String("session", session.ID()),
		zap.String("url", cfg.URL),
		zap.Int("feeds", len(cfg.Feeds)),
	)

	opened, err := openFeeds(session.Mux(), cfg.Feeds, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	if statsEvery > 0 {
		go logStats(ctx, session, logger, statsEvery)
	}

	err = session.Run(ctx)
	logger.Info("shutting down", zap.Any("stats", session.Stats()))
	return err
}

func logStats(ctx context.Context, s *stream.Session, logger *zap.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.Stats()
			logger.Info("stats",
				zap.Stringer("state", st.State),
				zap.Uint64("connects", st.Connects),
				zap.Uint64("received", st.Received),
				zap.Uint64("malformed", st.Malformed),
				zap.Duration("latency", st.LastLatency),
			)
		}
	}
}
