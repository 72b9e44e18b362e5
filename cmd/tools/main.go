package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/baxromumarov/policy-summarizer/internal/app"
	"github.com/baxromumarov/policy-summarizer/internal/config"
	"github.com/baxromumarov/policy-summarizer/internal/content"
	"github.com/baxromumarov/policy-summarizer/internal/httpx"
)

func main() {
	mode := flag.String("mode", "summarize", "One of: locate, normalize, summarize")
	configPath := flag.String("config", "", "Path to YAML config file (overrides CONFIG_FILE)")
	verbose := flag.Bool("v", false, "Log at debug level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <site-or-url>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config: %v", err)
	}

	level := cfg.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	pipeline, err := app.New(cfg, logger)
	if err != nil {
		fatal("build pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	switch *mode {
	case "locate":
		policyURL, err := pipeline.Service.Locate(ctx, input)
		if err != nil {
			fatal("locate: %v", err)
		}
		if policyURL == "" {
			fatal("no privacy policy found for %s", input)
		}
		fmt.Println(policyURL)

	case "normalize":
		doc, err := pipeline.HTTP.Fetch(ctx, input, httpx.FetchOptions{
			Timeout:         cfg.FetchTimeout,
			FollowRedirects: true,
		})
		if err != nil {
			fatal("fetch: %v", err)
		}
		text, err := content.NormalizeDocument(doc)
		if err != nil {
			fatal("normalize: %v", err)
		}
		fmt.Println(text)
		logger.Info("normalized", "url", doc.URL, "words", content.WordCount(text))

	case "summarize":
		summary, err := pipeline.Service.Summarize(ctx, input)
		if err != nil {
			fatal("summarize: %v", err)
		}
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fatal("encode summary: %v", err)
		}
		fmt.Println(string(out))

	default:
		fatal("unknown mode %q", *mode)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
