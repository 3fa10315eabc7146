package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samuelfneumann/torcsrl/config"
	"github.com/samuelfneumann/torcsrl/experiment"
	"github.com/samuelfneumann/torcsrl/transport"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		path     = flag.String("config", "", "YAML configuration file")
		host     = flag.String("host", "", "race server host")
		port     = flag.Int("port", 0, "race server port")
		id       = flag.String("id", "", "client identifier")
		episodes = flag.Int("episodes", -1, "maximum number of episodes, 0 for no limit")
		steps    = flag.Int("steps", -1, "maximum number of ticks per episode, 0 for no limit")
		track    = flag.String("track", "", "name of the track being raced")
		stage    = flag.String("stage", "", "race stage: warmup, qualifying, race or unknown")
		mode     = flag.String("mode", "", "train or drive")
	)
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Flags override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Transport.Host = *host
		case "port":
			cfg.Transport.Port = *port
		case "id":
			cfg.Transport.ID = *id
		case "episodes":
			cfg.Transport.MaxEpisodes = *episodes
		case "steps":
			cfg.Transport.MaxSteps = *steps
		case "track":
			cfg.Driver.Track = *track
		case "stage":
			cfg.Driver.Stage = *stage
		case "mode":
			cfg.Driver.Mode = *mode
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := newLogger(cfg.Log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("driver stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	conn, err := transport.Dial(cfg.Transport, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	e, err := experiment.New(cfg, conn, log)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-done:
			}
			shutdown, cancel := context.WithTimeout(context.Background(),
				5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		})
	}

	g.Go(func() error {
		defer close(done)
		log.Info("starting", "track", cfg.Driver.Track, "stage",
			cfg.Driver.Stage, "mode", cfg.Driver.Mode)
		err := e.Run(ctx)
		if errors.Is(err, context.Canceled) {
			log.Info("interrupted")
			return nil
		}
		return err
	})

	return g.Wait()
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(c.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}
