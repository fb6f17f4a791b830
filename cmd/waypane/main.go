// Command waypane opens a compositor window and keeps it alive until
// it is closed. It exists mostly to exercise the runtime; everything
// interesting lives in the app package.
package main

import (
	"fmt"
	"os"

	"deedles.dev/waypane/app"
	"deedles.dev/waypane/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		title      string
		width      int32
		height     int32
		background string
	)

	cmd := cobra.Command{
		Use:           "waypane",
		Short:         "A minimal Wayland window runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			overrides := config.Overrides{}
			if cmd.Flags().Changed("title") {
				overrides.Title = &title
			}
			if cmd.Flags().Changed("width") {
				overrides.Width = &width
			}
			if cmd.Flags().Changed("height") {
				overrides.Height = &height
			}
			if cmd.Flags().Changed("background") {
				overrides.Background = &background
			}

			cfg, diags := config.Load(configPath, overrides)
			for _, d := range diags {
				log.Warn().Stringer("origin", d.Origin).Msg(d.Message)
			}
			if diags.Fatal() {
				return fmt.Errorf("bad command-line configuration")
			}

			return run(cmd, log, cfg, configPath, overrides)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	cmd.Flags().StringVar(&title, "title", config.DefaultTitle, "window title")
	cmd.Flags().Int32Var(&width, "width", config.DefaultWidth, "window width in pixels")
	cmd.Flags().Int32Var(&height, "height", config.DefaultHeight, "window height in pixels")
	cmd.Flags().StringVar(&background, "background", config.DefaultBackground, "background color name")

	return &cmd
}

func run(cmd *cobra.Command, log zerolog.Logger, cfg *config.Config, configPath string, overrides config.Overrides) error {
	core := newCore(log)

	a := app.New(app.Options{
		Core:       core,
		Config:     cfg,
		ConfigPath: configPath,
		Overrides:  overrides,
		Logger:     &log,
	})

	if err := a.Startup(); err != nil {
		log.Err(err).Msg("startup failed")
		return err
	}
	defer a.Close()

	core.watchSignals(cmd.Context(), a)

	a.Request(app.Target{}, app.ActionNewWindow, nil)

	if err := a.Run(); err != nil {
		log.Err(err).Msg("runtime failed")
		return err
	}
	return nil
}
