package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jeff0926/webinsight-sub001/internal/config"
	"github.com/jeff0926/webinsight-sub001/internal/crypto"
	"github.com/jeff0926/webinsight-sub001/internal/hub"
	"github.com/jeff0926/webinsight-sub001/internal/inference"
	"github.com/jeff0926/webinsight-sub001/internal/logger"
	"github.com/jeff0926/webinsight-sub001/internal/report"
	"github.com/jeff0926/webinsight-sub001/internal/storage"
	"github.com/jeff0926/webinsight-sub001/internal/version"
)

func main() {
	var (
		addr        = flag.String("addr", "", "listen address (overrides PORT)")
		dbPath      = flag.String("db", "", "SQLite database path (overrides DATABASE_PATH)")
		reports     = flag.String("reports", "", "report output directory (overrides REPORTS_DIR)")
		debug       = flag.Bool("debug", false, "enable debug logging")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("webinsight-hub", version.Full())
		return
	}

	overrides := config.Overrides{}
	if *addr != "" {
		overrides.Addr = addr
	}
	if *dbPath != "" {
		overrides.DatabasePath = dbPath
	}
	if *reports != "" {
		overrides.ReportsDir = reports
	}
	if *debug {
		overrides.Debug = debug
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
	}

	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()
	store := storage.NewStore(db)

	renderer, err := report.NewRenderer(cfg.ReportsDir)
	if err != nil {
		logger.Errorf("Failed to prepare reports directory: %v", err)
		os.Exit(1)
	}

	tokens, err := crypto.NewTokenManager([]byte(cfg.MasterSecret))
	if err != nil {
		logger.Errorf("Failed to initialize token manager: %v", err)
		os.Exit(1)
	}
	signer, err := crypto.NewURLSigner([]byte(cfg.MasterSecret))
	if err != nil {
		logger.Errorf("Failed to initialize download signer: %v", err)
		os.Exit(1)
	}

	svc := pickInference(cfg)
	h := hub.New(store, svc, renderer, signer)
	server := hub.NewServer(cfg, h, tokens, signer, renderer)

	logger.Infof("WebInsight Hub %s starting on %s", version.Version(), cfg.Addr)
	logger.Infof("Reports directory: %s", cfg.ReportsDir)
	if err := server.Router().Run(cfg.Addr); err != nil {
		logger.Errorf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// pickInference selects the hosted model when a key is configured and falls
// back to the local extractive summarizer otherwise.
func pickInference(cfg *config.Config) inference.Service {
	if cfg.GeminiAPIKey == "" {
		logger.Infof("Key points: local extractive summarizer")
		return inference.NewExtractive()
	}
	svc, err := inference.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warnf("Gemini unavailable (%v), using the extractive summarizer", err)
		return inference.NewExtractive()
	}
	logger.Infof("Key points: Gemini model %s", cfg.GeminiModel)
	return svc
}
