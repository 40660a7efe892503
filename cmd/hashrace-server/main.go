// Command hashrace-server exposes the parallel suffix search over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashrace/hashrace/pkg/api"
	"github.com/hashrace/hashrace/pkg/config"
	"github.com/hashrace/hashrace/pkg/logging"
	"github.com/hashrace/hashrace/pkg/mining"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Level and format were validated with the rest of the config.
	level, _ := logging.ParseLogLevel(cfg.Logging.Level)
	format, _ := logging.ParseLogFormat(cfg.Logging.Format)
	output := io.Writer(os.Stderr)
	if cfg.Logging.File != "" {
		output, err = logging.CreateFileOutput(cfg.Logging.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	logging.InitGlobalLogger(&logging.Config{Level: level, Format: format, Output: output})
	logger := logging.GetGlobalLogger().WithComponent("server")

	server := api.NewServer(api.Config{
		ListenAddr:       cfg.Server.ListenAddr,
		MaxWorkers:       cfg.Server.MaxWorkers,
		MaxUpperBound:    cfg.Server.MaxUpperBound,
		DefaultWorkers:   cfg.Search.DefaultWorkers,
		ProgressInterval: time.Duration(cfg.Search.ProgressIntervalMS) * time.Millisecond,
	}, mining.SuffixProbe, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}
}
