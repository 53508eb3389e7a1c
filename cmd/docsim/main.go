package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/botirk38/docsim"
	"github.com/botirk38/docsim/aggregate"
	"github.com/botirk38/docsim/cache"
	"github.com/botirk38/docsim/config"
	"github.com/botirk38/docsim/options"
	"github.com/botirk38/docsim/providers/gemini"
	"github.com/botirk38/docsim/providers/openai"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: docsim [--config=config.yaml] [-v] a.pdf b.pdf")
		os.Exit(1)
	}
	pathA, pathB := flag.Arg(0), flag.Arg(1)

	// .env is optional; real deployments set the variables directly.
	_ = godotenv.Load()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []options.Option{
		options.WithOpenAIProvider(openai.Config{
			APIKey:  os.Getenv(cfg.OpenAI.APIKeyEnv),
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		}),
		options.WithGeminiProvider(ctx, gemini.Config{
			APIKey:     os.Getenv(cfg.Gemini.APIKeyEnv),
			TagModel:   cfg.Gemini.TagModel,
			EmbedModel: cfg.Gemini.EmbedModel,
		}),
		options.WithWeights(cfg.Weights),
		options.WithStrategy(aggregate.Strategy(cfg.Strategy)),
		options.WithMaxConcurrency(cfg.MaxConcurrency),
		options.WithLogger(log),
	}
	if cfg.CallTimeoutSecs > 0 {
		opts = append(opts, options.WithCallTimeout(time.Duration(cfg.CallTimeoutSecs)*time.Second))
	}

	switch cfg.Cache.Type {
	case "none":
	case "lru", "":
		store, err := cache.NewLRUStore(cfg.Cache.Capacity)
		if err != nil {
			log.Fatalf("failed to create cache: %v", err)
		}
		opts = append(opts, options.WithCache(store))
	case "redis":
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			Database: cfg.Cache.Database,
		})
		if err != nil {
			log.Fatalf("failed to connect cache: %v", err)
		}
		opts = append(opts, options.WithCache(store))
	default:
		log.Fatalf("unknown cache type: %s", cfg.Cache.Type)
	}

	pipeline, err := docsim.New(opts...)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}
	defer pipeline.Close()

	result, err := pipeline.Compare(ctx, pathA, pathB)
	if err != nil {
		log.Fatalf("comparison failed: %v", err)
	}

	fmt.Printf("similarity:  %.4f\n", result.Score)
	fmt.Printf("  text:      %.4f\n", result.TextScore)
	fmt.Printf("  image:     %.4f  (%d pairs)\n", result.ImageScore, result.ImagePairs)
}
