package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/umputun/feedscope/pkg/config"
	"github.com/umputun/feedscope/pkg/engine"
	"github.com/umputun/feedscope/pkg/llm"
	"github.com/umputun/feedscope/pkg/repository"
	"github.com/umputun/feedscope/pkg/service"
	"github.com/umputun/feedscope/pkg/source"
	"github.com/umputun/feedscope/server"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"f" long:"config" env:"CONFIG" description:"config file (yaml)"`
	Listen  string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
	Refresh bool   `short:"r" long:"refresh" description:"force dataset refresh on start, ignore cache"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	// load .env if present, real env vars win
	_ = godotenv.Load()

	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor)

	log.Printf("[INFO] starting feedscope version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repo, err := repository.New(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repo.Close()

	srcCfg := cfg.GetSourcesConfig()
	fetcher := makeFetcher(srcCfg)

	var classifier *llm.Classifier
	var ai engine.AIClassifier
	var summarizer engine.Summarizer
	if cfg.LLM.Enabled() {
		classifier = llm.NewClassifier(cfg.GetLLMConfig())
		ai = classifier
		summarizer = classifier
		log.Printf("[INFO] AI classification enabled, model %s", cfg.LLM.Model)
	} else {
		log.Printf("[WARN] no LLM api key, classification runs in fallback mode")
	}

	engCfg := cfg.GetEngineConfig()
	processor := engine.NewProcessor(ai, engine.ProcessorConfig{
		BatchSize:     cfg.LLM.Classification.BatchSize,
		MaxConcurrent: cfg.LLM.Classification.MaxConcurrent,
		RateLimit:     cfg.LLM.Classification.RateLimit,
		Timeout:       cfg.LLM.Timeout,
	})
	aggregator := engine.NewAggregator(summarizer, engine.AggregatorConfig{
		TopBugs:     engCfg.TopBugs,
		TopFeatures: engCfg.TopFeatures,
		TopTopics:   engCfg.TopTopics,
		BucketWidth: engCfg.BucketWidth,
		DeadBand:    engCfg.TrendDeadBand,
	})

	pipeline := service.NewPipeline(service.Config{
		Fetcher:     fetcher,
		Normalizer:  source.NewNormalizer(),
		Processor:   processor,
		Prioritizer: engine.NewPrioritizer(engCfg.LowRatingThreshold),
		Topics:      engine.NewTopicExtractor(engCfg.TopTopics),
		Aggregator:  aggregator,
		Repo:        repo,
		CacheTTL:    srcCfg.CacheTTL,
	})

	if err := pipeline.Run(ctx, opts.Refresh); err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}

	srv := server.New(cfg, aggregator, pipeline, revision, opts.Debug)
	return srv.Run(ctx)
}

// loadConfig reads the config file when given, otherwise uses defaults. The
// listen flag wins over the config value either way.
func loadConfig(opts Opts) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	return cfg, nil
}

// makeFetcher registers all configured feedback sources. Play Store has no
// public feed, so it is served from the built-in sample. App Store reviews
// come from the public RSS endpoint with the sample as degradation fallback.
func makeFetcher(cfg config.SourcesConfig) *source.Fetcher {
	fetcher := source.NewFetcher()

	fetcher.Register("google_play", source.ProviderFunc(func(context.Context) ([]source.Item, error) {
		return source.MockGooglePlay(), nil
	}), source.MockGooglePlay)

	appStore := source.NewAppStoreClient(cfg.AppStoreAppID, cfg.AppStorePages, cfg.FetchTimeout)
	fetcher.Register("app_store", appStore, source.MockAppStore)

	csvProvider := source.ProviderFunc(func(context.Context) ([]source.Item, error) {
		return source.MockCSV(), nil
	})
	if cfg.CSVPath != "" {
		path := cfg.CSVPath
		csvProvider = func(context.Context) ([]source.Item, error) { return source.LoadCSV(path) }
	}
	fetcher.Register("csv", csvProvider, source.MockCSV)

	generator := source.NewGenerator(time.Now().UnixNano(), "feedscope")
	fetcher.Register("synthetic", source.ProviderFunc(func(context.Context) ([]source.Item, error) {
		return generator.Generate(cfg.SyntheticCount, cfg.SyntheticDays), nil
	}), nil)

	return fetcher
}

func setupLog(dbg, noColor bool) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = append(logOpts, lgr.Debug, lgr.CallerFile, lgr.CallerFunc)
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
