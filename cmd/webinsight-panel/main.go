package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeff0926/webinsight-sub001/internal/config"
	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/hubclient"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/panel"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/version"
)

func main() {
	if err := run(); err != nil {
		logger.Errorf("panel: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("webinsight-panel", version.Full())
		return nil
	}

	cfg, err := config.LoadPeer(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := hubclient.Connect(ctx, cfg.Hub.URL, cfg.Hub.Secret, crypto.RolePanel, "")
	if err != nil {
		return err
	}
	peer := transport.NewPeer(conn,
		transport.WithName("panel"),
		transport.WithDefaultTimeout(cfg.Hub.GetRequestTimeout()),
	)

	// The command loop stops at the next prompt once the link dies.
	replCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		if err := peer.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("hub link lost: %v", err)
		}
	}()

	logger.Infof("Connected to %s", cfg.Hub.URL)
	app := panel.NewApp(peer, peer, os.Stdout)
	return app.Run(replCtx, os.Stdin)
}

func applyLogLevel(raw string) {
	if raw == "" {
		return
	}
	level, err := logger.ParseLevel(raw)
	if err != nil {
		logger.Warnf("Unknown log level %q, keeping the default", raw)
		return
	}
	logger.SetLevel(level)
}
