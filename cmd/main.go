package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/takak2166/backlog2mdbook/internal/backlog"
	"github.com/takak2166/backlog2mdbook/internal/book"
	"github.com/takak2166/backlog2mdbook/internal/converter"
	"github.com/takak2166/backlog2mdbook/internal/logger"
)

// config holds the command line settings after environment fallbacks
type config struct {
	apiKey   string
	space    string
	project  string
	output   string
	title    string
	build    bool
	logLevel string
}

// envOr returns the environment value for key when value is empty
func envOr(value, key, def string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadConfig(args []string) (*config, error) {
	fs := flag.NewFlagSet("backlog2mdbook", flag.ContinueOnError)
	apiKey := fs.String("apikey", "", "Backlog API key (BACKLOG_API_KEY)")
	space := fs.String("space", "", "Backlog space host, e.g. example.backlog.com (BACKLOG_SPACE)")
	project := fs.String("project", "", "Backlog project key (BACKLOG_PROJECT)")
	output := fs.String("output", "", "Book directory (OUTPUT_DIR, default \"book\")")
	title := fs.String("title", "", "Book title when the book is created (BOOK_TITLE, default project name)")
	build := fs.Bool("build", false, "Render the book to HTML after generating it (BUILD_BOOK)")
	logLevel := fs.String("log-level", "", "Log level (LOG_LEVEL, default \"info\")")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &config{
		apiKey:   envOr(*apiKey, "BACKLOG_API_KEY", ""),
		space:    envOr(*space, "BACKLOG_SPACE", ""),
		project:  envOr(*project, "BACKLOG_PROJECT", ""),
		output:   envOr(*output, "OUTPUT_DIR", "book"),
		title:    envOr(*title, "BOOK_TITLE", ""),
		build:    *build,
		logLevel: envOr(*logLevel, "LOG_LEVEL", "info"),
	}

	if !cfg.build {
		if v := os.Getenv("BUILD_BOOK"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid BUILD_BOOK value %q: %w", v, err)
			}
			cfg.build = b
		}
	}

	if cfg.apiKey == "" || cfg.space == "" || cfg.project == "" {
		fs.Usage()
		return nil, errors.New("apikey, space and project are required")
	}
	return cfg, nil
}

func main() {
	// A missing .env file is fine, a broken one is not
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.logLevel); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	client, err := backlog.New(cfg.space, cfg.apiKey)
	if err != nil {
		logger.Error("Failed to initialize Backlog client", err, nil)
		os.Exit(1)
	}

	c := converter.New(client, book.New(cfg.output))
	if _, err := c.Run(context.Background(), converter.Options{
		ProjectKey: cfg.project,
		Title:      cfg.title,
		Build:      cfg.build,
	}); err != nil {
		logger.Error("Conversion failed", err, logger.Fields{
			"project": cfg.project,
			"output":  cfg.output,
		})
		os.Exit(1)
	}
}
