package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jeff0926/webinsight-sub001/internal/agent"
	"github.com/jeff0926/webinsight-sub001/internal/agent/page"
	"github.com/jeff0926/webinsight-sub001/internal/config"
	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/hubclient"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/transport"
	"github.com/jeff0926/webinsight-sub001/internal/version"
)

// inputPollInterval is how often the overlay's input buffer is drained.
const inputPollInterval = 50 * time.Millisecond

func main() {
	if err := run(); err != nil {
		logger.Errorf("agent: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		tabFlag     = flag.String("tab", "", "tab id (overrides config)")
		pageURL     = flag.String("url", "", "navigate the attached browser to this URL")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("webinsight-agent", version.Full())
		return nil
	}

	cfg, err := config.LoadPeer(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLogLevel(cfg.LogLevel)

	tabID := cfg.Hub.TabID
	if *tabFlag != "" {
		tabID = *tabFlag
	}
	if tabID == "" {
		tabID = uuid.NewString()[:8]
		logger.Infof("No tab id configured, using %s", tabID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, overlay, err := buildPage(ctx, cfg.Page, *pageURL)
	if err != nil {
		return err
	}
	defer source.Close()

	conn, err := hubclient.Connect(ctx, cfg.Hub.URL, cfg.Hub.Secret, crypto.RoleAgent, tabID)
	if err != nil {
		return err
	}

	peer := transport.NewPeer(conn,
		transport.WithName("agent"),
		transport.WithDefaultTimeout(cfg.Hub.GetRequestTimeout()),
	)
	a := agent.New(peer, source, overlay, agent.Config{
		TabID:   tabID,
		MinSize: cfg.Selection.EffectiveMinSize(),
	})

	a.Start(ctx)
	defer a.Stop()
	if rodOverlay, ok := overlay.(*page.RodOverlay); ok {
		go rodOverlay.Pump(ctx, inputPollInterval, a.HandleInput)
	}

	logger.Infof("Agent for tab %s connected to %s", tabID, cfg.Hub.URL)
	if err := peer.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("hub link lost: %w", err)
	}
	return nil
}

// buildPage picks the live browser adapter when a debugger is configured
// and the static file adapter otherwise.
func buildPage(ctx context.Context, cfg config.PageConfig, pageURL string) (page.Source, agent.Overlay, error) {
	if cfg.DebuggerURL != "" {
		src, err := page.NewRodSource(ctx, cfg.DebuggerURL, pageURL)
		if err != nil {
			return nil, nil, fmt.Errorf("attach to browser: %w", err)
		}
		return src, page.NewRodOverlay(src.RodPage()), nil
	}

	if cfg.SourceFile == "" {
		return nil, nil, fmt.Errorf("page.debugger_url or page.source_file is required")
	}
	src, err := page.NewStaticSource(cfg.SourceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", cfg.SourceFile, err)
	}
	return src, nil, nil
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
