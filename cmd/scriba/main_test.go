package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestApp(action cli.ActionFunc) *cli.App {
	return &cli.App{
		Name: "scriba",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "noop",
				Action: action,
			},
		},
	}
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	t.Run("default level is info", func(t *testing.T) {
		ran := false
		app := newTestApp(func(c *cli.Context) error {
			ran = true
			return nil
		})

		err := app.Run([]string{"scriba", "noop"})
		require.NoError(t, err)
		assert.True(t, ran)
		assert.True(t, slog.Default().Enabled(nil, slog.LevelInfo))
		assert.False(t, slog.Default().Enabled(nil, slog.LevelDebug))
	})

	t.Run("debug level enables debug logging", func(t *testing.T) {
		app := newTestApp(func(c *cli.Context) error { return nil })

		err := app.Run([]string{"scriba", "--log-level", "debug", "noop"})
		require.NoError(t, err)
		assert.True(t, slog.Default().Enabled(nil, slog.LevelDebug))
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		ran := false
		app := newTestApp(func(c *cli.Context) error {
			ran = true
			return nil
		})

		err := app.Run([]string{"scriba", "--log-level", "loud", "noop"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.False(t, ran)
	})
}
