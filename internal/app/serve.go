package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PlumyCat/doctrans/internal/blobstore"
	"github.com/PlumyCat/doctrans/internal/cli"
	"github.com/PlumyCat/doctrans/internal/config"
	"github.com/PlumyCat/doctrans/internal/drive"
	"github.com/PlumyCat/doctrans/internal/httpapi"
	"github.com/PlumyCat/doctrans/internal/logging"
	"github.com/PlumyCat/doctrans/internal/translator"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8080, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 120*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	// The server boots even with incomplete configuration so the health
	// endpoint can report exactly which settings are missing.
	if missing := cfg.MissingRequired(); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("serving with incomplete configuration")
	}

	blobs, err := blobstore.New(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("blob store initialization failed")
		fmt.Fprintf(os.Stderr, "Failed to initialize blob store: %v\n", err)
		return 1
	}

	if len(cfg.MissingRequired()) == 0 {
		bucketCtx, bucketCancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := blobs.EnsureBuckets(bucketCtx); err != nil {
			logger.Warn().Err(err).Msg("bucket provisioning failed, continuing")
		}
		bucketCancel()
	}

	engine := translator.NewClient(cfg.TranslatorEndpoint, cfg.TranslatorKey)
	mirror := drive.NewClient(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(cfg, logger, blobs, engine, mirror, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
