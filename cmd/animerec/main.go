// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/poiesic/animerec"
	"github.com/poiesic/animerec/config"
	"github.com/poiesic/animerec/core"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "animerec",
		Usage: "Anime recommendations from a semantic index and a hosted language model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Process the raw anime CSV and rebuild the vector index",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "raw",
						Aliases:  []string{"r"},
						Usage:    "Path to the raw anime CSV",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "processed",
						Aliases: []string{"p"},
						Usage:   "Path the processed CSV is written to",
						Value:   "data/anime_updated.csv",
					},
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Index directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides config)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides config)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding requests (overrides config)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Chunks per embedding request (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Attempts per embedding request (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Do not print embedding progress",
					},
				},
			},
			{
				Name:      "recommend",
				Usage:     "Answer a query, or read queries from stdin when none is given",
				ArgsUsage: "[query...]",
				Action:    recommendCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Index directory (overrides config)",
					},
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of anime retrieved as context (overrides config)",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Completion model name (overrides config)",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print retrieval details to stderr",
					},
				},
			},
		},
	}
}

// loadConfig loads the config file and environment, then applies the
// command's flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if !c.IsSet("log-level") {
		level, err := parseLevel(cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
		setDefaultLogger(level)
	}

	if dir := c.String("index"); dir != "" {
		cfg.Index.Dir = dir
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.Embedding.Host = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.Embedding.Model = model
	}
	if model := c.String("model"); model != "" {
		cfg.Completion.Model = model
	}
	if c.IsSet("workers") {
		cfg.Build.Workers = c.Int("workers")
	}
	if c.IsSet("batch-size") {
		cfg.Build.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-retries") {
		cfg.Build.MaxAttempts = c.Int("max-retries")
	}
	if c.IsSet("k") {
		cfg.Retrieval.K = c.Int("k")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Raw dataset: %s\n", c.String("raw"))
	fmt.Fprintf(os.Stderr, "Processed dataset: %s\n", c.String("processed"))
	fmt.Fprintf(os.Stderr, "Index: %s\n", cfg.Index.Dir)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	var opts []animerec.Option
	if !c.Bool("quiet") {
		opts = append(opts, animerec.WithProgress(os.Stderr))
	}

	report, err := animerec.RunBuildPipeline(ctx, cfg, c.String("raw"), c.String("processed"), opts...)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %d anime as %d chunks in %s\n",
		report.Stats.Items, report.Stats.Chunks, report.Duration.Round(time.Millisecond))
	return nil
}

func recommendCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	pipeline, err := animerec.NewRecommendationPipeline(ctx, cfg)
	if err != nil {
		if errors.Is(err, core.KindIndex) {
			return fmt.Errorf("%w (run `animerec build` first)", err)
		}
		return err
	}
	defer pipeline.Close()

	var monitor *textMonitor
	if c.Bool("verbose") {
		monitor = newTextMonitor(os.Stderr)
	}

	if c.Args().Len() > 0 {
		return answer(ctx, pipeline, monitor, strings.Join(c.Args().Slice(), " "), os.Stdout)
	}
	return repl(ctx, pipeline, monitor, os.Stdin, os.Stdout, os.Stderr)
}

func answer(ctx context.Context, pipeline *animerec.RecommendationPipeline, monitor *textMonitor, query string, out io.Writer) error {
	var text string
	var err error
	if monitor != nil {
		text, err = pipeline.RecommendWithMonitor(ctx, query, monitor)
	} else {
		text, err = pipeline.Recommend(ctx, query)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}

// repl answers one query per input line until EOF, "exit" or "quit".
// A failed query is reported and the loop continues.
func repl(ctx context.Context, pipeline *animerec.RecommendationPipeline, monitor *textMonitor,
	in io.Reader, out, prompt io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(prompt, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(prompt)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		switch query {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := answer(ctx, pipeline, monitor, query, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(prompt, "error: %v\n", err)
		}
		fmt.Fprintln(out)
	}
}

func parseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", strings.ToLower(levelStr))
	}
}

func setDefaultLogger(level slog.Level) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	setDefaultLogger(level)
	return nil
}
