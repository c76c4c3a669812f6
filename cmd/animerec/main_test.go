package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/animerec"
	"github.com/poiesic/animerec/ai/mock"
	"github.com/poiesic/animerec/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const rawCSV = "MAL_ID,Name,Genres,sypnopsis\n" +
	"20,Naruto,\"Action, Shounen\",A ninja from the hidden leaf village.\n" +
	"21,One Piece,Adventure,A pirate crew hunts for treasure.\n"

// isolate runs the test in an empty directory with no animerec environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, name := range []string{"GROQ_API_KEY", "MODEL_NAME", "ANIMEREC_API_KEY", "ANIMEREC_CONFIG", "ANIMEREC_INDEX_DIR"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	return dir
}

func findFlag[T cli.Flag](cmd *cli.Command, name string) T {
	var zero T
	for _, flag := range cmd.Flags {
		if f, ok := flag.(T); ok && flag.Names()[0] == name {
			return f
		}
	}
	return zero
}

func command(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestBuildCommandFlags(t *testing.T) {
	app := newApp()
	build := command(app, "build")
	require.NotNil(t, build)

	t.Run("raw is required", func(t *testing.T) {
		isolate(t)
		err := newApp().Run([]string{"animerec", "build"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "raw")
	})

	t.Run("processed has default value", func(t *testing.T) {
		processed := findFlag[*cli.StringFlag](build, "processed")
		require.NotNil(t, processed)
		assert.Equal(t, "data/anime_updated.csv", processed.Value)
	})

	t.Run("index has no default value", func(t *testing.T) {
		index := findFlag[*cli.StringFlag](build, "index")
		require.NotNil(t, index)
		assert.Empty(t, index.Value)
		assert.Equal(t, []string{"i"}, index.Aliases)
	})

	t.Run("missing raw file fails", func(t *testing.T) {
		dir := isolate(t)
		err := newApp().Run([]string{"animerec", "build", "--quiet",
			"--raw", filepath.Join(dir, "missing.csv"), "--index", filepath.Join(dir, "index_db")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "build failed")
		assert.NoDirExists(t, filepath.Join(dir, "index_db"))
	})
}

func TestRecommendCommand(t *testing.T) {
	t.Run("verbose flag has alias -v", func(t *testing.T) {
		verbose := findFlag[*cli.BoolFlag](command(newApp(), "recommend"), "verbose")
		require.NotNil(t, verbose)
		assert.Equal(t, []string{"v"}, verbose.Aliases)
	})

	t.Run("missing api key", func(t *testing.T) {
		isolate(t)
		err := newApp().Run([]string{"animerec", "recommend", "ninja"})
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrAPIKeyRequired)
	})

	t.Run("missing index suggests building", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv("ANIMEREC_API_KEY", "gsk-test")

		err := newApp().Run([]string{"animerec", "recommend", "--index", filepath.Join(dir, "none"), "ninja"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "animerec build")
	})
}

func TestLoadConfig(t *testing.T) {
	run := func(t *testing.T, args []string, check func(*config.Config)) {
		t.Helper()
		app := newApp()
		build := command(app, "build")
		build.Action = func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			check(cfg)
			return nil
		}
		require.NoError(t, app.Run(args))
	}

	t.Run("flags override config", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "animerec.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index:\n  dir: from-file\nbuild:\n  workers: 2\n"), 0644))

		run(t, []string{"animerec", "--config", path, "build", "--raw", "x.csv",
			"--index", "from-flag", "--workers", "8", "--embedding-model", "nomic-embed-text"},
			func(cfg *config.Config) {
				assert.Equal(t, "from-flag", cfg.Index.Dir)
				assert.Equal(t, 8, cfg.Build.Workers)
				assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
				assert.Equal(t, 64, cfg.Build.BatchSize)
			})
	})

	t.Run("config values survive without flags", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "animerec.yaml")
		require.NoError(t, os.WriteFile(path, []byte("index:\n  dir: from-file\nbuild:\n  workers: 2\n"), 0644))

		run(t, []string{"animerec", "--config", path, "build", "--raw", "x.csv"},
			func(cfg *config.Config) {
				assert.Equal(t, "from-file", cfg.Index.Dir)
				assert.Equal(t, 2, cfg.Build.Workers)
			})
	})

	t.Run("invalid override is rejected", func(t *testing.T) {
		isolate(t)
		app := newApp()
		command(app, "build").Action = func(c *cli.Context) error {
			_, err := loadConfig(c)
			return err
		}
		err := app.Run([]string{"animerec", "build", "--raw", "x.csv", "--workers", "0"})
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestRepl(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	raw := filepath.Join(dir, "anime.csv")
	require.NoError(t, os.WriteFile(raw, []byte(rawCSV), 0644))

	cfg := config.Default()
	cfg.Index.Dir = filepath.Join(dir, "index_db")
	cfg.Retrieval.K = 1
	provider := mock.NewMockProviderWithServices(
		mock.NewBagOfWordsEmbedder("ninja", "village", "pirate", "treasure"),
		mock.NewMockCompleter(),
	)

	_, err := animerec.RunBuildPipeline(ctx, cfg, raw, filepath.Join(dir, "processed.csv"), animerec.WithProvider(provider))
	require.NoError(t, err)

	pipeline, err := animerec.NewRecommendationPipeline(ctx, cfg, animerec.WithProvider(provider))
	require.NoError(t, err)
	defer pipeline.Close()

	t.Run("answers each line until quit", func(t *testing.T) {
		in := strings.NewReader("ninja village\n\npirate treasure\nquit\nignored\n")
		var out, prompt bytes.Buffer

		require.NoError(t, repl(ctx, pipeline, nil, in, &out, &prompt))

		text := out.String()
		assert.Contains(t, text, "Naruto")
		assert.Contains(t, text, "One Piece")
		assert.NotContains(t, text, "ignored")
		assert.Equal(t, 4, strings.Count(prompt.String(), "> "))
	})

	t.Run("stops at end of input", func(t *testing.T) {
		var out, prompt bytes.Buffer
		require.NoError(t, repl(ctx, pipeline, nil, strings.NewReader("ninja\n"), &out, &prompt))
		assert.Contains(t, out.String(), "Naruto")
	})

	t.Run("failed query does not stop the loop", func(t *testing.T) {
		completer := provider.GetMockCompleter()
		calls := 0
		completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
			calls++
			if calls == 1 {
				return "", assert.AnError
			}
			return prompt, nil
		}
		defer func() { completer.CompleteFunc = nil }()

		var out, prompt bytes.Buffer
		require.NoError(t, repl(ctx, pipeline, nil, strings.NewReader("ninja\npirate\n"), &out, &prompt))
		assert.Contains(t, prompt.String(), "error:")
		assert.Contains(t, out.String(), "One Piece")
	})

	t.Run("verbose monitor lists retrieved titles", func(t *testing.T) {
		var out, prompt, details bytes.Buffer
		require.NoError(t, repl(ctx, pipeline, newTextMonitor(&details), strings.NewReader("pirate\n"), &out, &prompt))
		assert.Contains(t, details.String(), `query: "pirate"`)
		assert.Contains(t, details.String(), "retrieved 1 documents")
		assert.Contains(t, details.String(), "1. One Piece")
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				level, err := parseLevel(tc.input)
				require.NoError(t, err)
				assert.Equal(t, tc.expected, level)

				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err = app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(context.Background(), tc.expected))
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				_, err := parseLevel(tc)
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp()
		var flag *cli.StringFlag
		for _, f := range app.Flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "log-level" {
				flag = sf
			}
		}
		require.NotNil(t, flag)
		assert.Equal(t, []string{"l"}, flag.Aliases)
		assert.Equal(t, "info", flag.Value)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
