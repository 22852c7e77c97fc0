package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgaraujo/newstrend/internal/analysis"
	"github.com/dgaraujo/newstrend/internal/config"
	"github.com/dgaraujo/newstrend/internal/ingest"
	"github.com/dgaraujo/newstrend/internal/logger"
	"github.com/dgaraujo/newstrend/internal/models"
	"github.com/dgaraujo/newstrend/internal/storage"
	"github.com/dgaraujo/newstrend/internal/telegram"
)

var (
	configPath   = flag.String("config", "configs/config.yaml", "Path to configuration file")
	articlesPath = flag.String("articles", "", "Path to JSON article batch from the ingestion collaborator")
)

func main() {
	flag.Parse()

	if *articlesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: newstrend -articles <batch.json> [-config <config.yaml>]")
		os.Exit(2)
	}

	// Load and validate configuration before anything else runs
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	articles, err := ingest.LoadFile(*articlesPath)
	if err != nil {
		logger.Fatal("Failed to load article batch: %v", err)
	}
	logger.Info("Loaded %d articles from %s", len(articles), *articlesPath)

	analyzer, err := analysis.New(cfg)
	if err != nil {
		logger.Fatal("Failed to create analyzer: %v", err)
	}

	result, err := analyzer.Run(articles)
	if err != nil {
		logger.Fatal("Analysis failed: %v", err)
	}

	printReport(result)

	if cfg.Storage.Enabled {
		store, err := storage.New(cfg.Storage.DBPath)
		if err != nil {
			logger.Fatal("Failed to open run store: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close run store: %v", err)
			}
		}()

		run := storage.Run{
			ID:       result.RunID,
			Asset:    result.Asset,
			RanAt:    result.RanAt,
			Articles: result.Articles,
		}
		if err := store.SaveRun(run, result.Clusters, result.Signal); err != nil {
			logger.Error("Failed to persist run: %v", err)
		} else {
			logger.Info("Run %s persisted to %s", result.RunID, cfg.Storage.DBPath)
		}
	}

	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		if err := client.SendDigest(result.Asset, result.Clusters, result.Signal); err != nil {
			logger.Error("Failed to send digest: %v", err)
		} else {
			logger.Info("Digest sent")
		}
	}
}

// printReport writes the run summary to stdout for the reporting collaborator.
func printReport(result *analysis.Result) {
	fmt.Printf("Run %s, asset %s: %d articles, %d clusters\n\n",
		result.RunID, result.Asset, result.Articles, len(result.Clusters))

	for i, c := range result.Clusters {
		fmt.Printf("Event %d: %d articles from %d sources, first reported %s\n",
			i+1, c.Size(), c.SourceCount(), c.FirstReport.Format("2006-01-02 15:04"))
		fmt.Printf("  members: %v\n", c.ArticleIDs)
		fmt.Printf("  sources: %v\n", c.Sources)
	}

	if len(result.Signal) == 0 {
		fmt.Println("\nNo trend signal (empty batch).")
		return
	}

	fmt.Println("\nTrend signal:")
	for _, p := range result.Signal {
		arrow := "→"
		switch p.Direction {
		case models.DirectionUp:
			arrow = "↑"
		case models.DirectionDown:
			arrow = "↓"
		}
		fmt.Printf("  %s  %8.3f  %s\n", p.Window.Format("2006-01-02"), p.Score, arrow)
	}
}
