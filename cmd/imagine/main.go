package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/shouni/gemini-imagine/internal/config"
	"github.com/shouni/gemini-imagine/internal/logger"
	"github.com/shouni/gemini-imagine/internal/presets"
	"github.com/shouni/gemini-imagine/internal/server"
	"github.com/shouni/gemini-imagine/pkg/domain"
	"github.com/shouni/gemini-imagine/pkg/generator"
	"github.com/shouni/gemini-imagine/pkg/history"
	"github.com/shouni/gemini-imagine/pkg/imgutil"
	"github.com/shouni/gemini-imagine/pkg/session"
)

var (
	version = "dev"
	commit  = "none"
)

const shutdownTimeout = 10 * time.Second

// App はコマンドの依存関係をまとめたものです。テストで差し替えられます。
type App struct {
	Out        io.Writer
	Err        io.Writer
	NewModel   func(ctx context.Context, apiKey string) (generator.GenerativeModel, error)
	IsTerminal func(w io.Writer) bool
}

func DefaultApp() *App {
	return &App{
		Out: os.Stdout,
		Err: os.Stderr,
		NewModel: func(ctx context.Context, apiKey string) (generator.GenerativeModel, error) {
			return generator.NewGenAIModel(ctx, apiKey)
		},
		IsTerminal: func(w io.Writer) bool {
			f, ok := w.(*os.File)
			return ok && term.IsTerminal(int(f.Fd()))
		},
	}
}

func main() {
	if err := newRootCmd(DefaultApp()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imagine",
		Short: "Generate images from text prompts with Gemini",
		Long: `imagine turns text prompts into images using the Gemini API.

Examples:
  imagine serve --port 8080
  imagine generate -a 16:9 "a futuristic city made of crystal"
  imagine enhance "a cat on a sofa"`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	cmd.PersistentFlags().String("config", "", "config file (yaml, json, toml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-development", false, "human readable development logs")

	cmd.AddCommand(newServeCmd(app), newGenerateCmd(app), newEnhanceCmd(app))
	return cmd
}

// runEnv はコマンドの実行に必要な設定とロガーです。
type runEnv struct {
	cfg *config.Config
	log *zap.Logger
}

func loadRuntime(cmd *cobra.Command, bindings map[string]string) (*runEnv, error) {
	configFile, _ := cmd.Flags().GetString("config")

	flags := map[string]*pflag.Flag{
		"log.level":       cmd.Flag("log-level"),
		"log.development": cmd.Flag("log-development"),
	}
	for key, name := range bindings {
		flags[key] = cmd.Flag(name)
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	return &runEnv{cfg: cfg, log: log}, nil
}

func (app *App) newGateway(ctx context.Context, rt *runEnv) (*generator.Gateway, error) {
	model, err := app.NewModel(ctx, rt.cfg.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return generator.NewGateway(model, rt.cfg.Gemini.TextModel, rt.cfg.Gemini.ImageModel, rt.log)
}

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, map[string]string{
				"server.host": "host",
				"server.port": "port",
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx, rt)
		},
	}
	cmd.Flags().String("host", "localhost", "listen host")
	cmd.Flags().Int("port", 8080, "listen port")
	return cmd
}

func (app *App) serve(ctx context.Context, rt *runEnv) error {
	gw, err := app.newGateway(ctx, rt)
	if err != nil {
		return err
	}
	p, err := presets.Default()
	if err != nil {
		return err
	}

	storage := history.NewMemoryStorage(rt.cfg.Session.QuotaBytes)
	registry := session.NewRegistry(gw, storage, rt.cfg.Session.IdleTTL, rt.log)
	go registry.Run(ctx, rt.cfg.Session.SweepInterval)

	srv := server.New(rt.cfg, registry, p, rt.log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	rt.log.Info("Server exited")
	return nil
}

type generateOptions struct {
	aspectRatio string
	enhance     bool
	output      string
	format      string
}

func newGenerateCmd(app *App) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate one image and save it to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runGenerate(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.aspectRatio, "aspect-ratio", "a", string(domain.AspectRatioSquare), "aspect ratio (1:1, 16:9, 9:16, 2:3, 1:2)")
	cmd.Flags().BoolVarP(&opts.enhance, "enhance", "e", false, "enhance the prompt before generating")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default gemini-imagine-<id>.<ext>, - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format (png, jpeg); default keeps the returned format")
	return cmd
}

func (app *App) runGenerate(cmd *cobra.Command, prompt string, opts *generateOptions) error {
	ratio, err := domain.ParseAspectRatio(opts.aspectRatio)
	if err != nil {
		return err
	}
	format, err := imgutil.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.output == "-" && app.IsTerminal(app.Out) {
		return errors.New("refusing to write binary image data to a terminal; use --output <file>")
	}

	rt, err := loadRuntime(cmd, nil)
	if err != nil {
		return err
	}
	defer func() { _ = rt.log.Sync() }()

	ctx := cmd.Context()
	gw, err := app.newGateway(ctx, rt)
	if err != nil {
		return err
	}

	if opts.enhance {
		res := gw.Enhance(ctx, prompt)
		if res.Degraded {
			fmt.Fprintln(app.Err, "Warning: prompt enhancement failed; using the original prompt")
		} else {
			fmt.Fprintf(app.Err, "Enhanced prompt: %s\n", res.Text)
		}
		if res.Text != "" {
			prompt = res.Text
		}
	}

	// ブラウザと同じライフサイクルで1枚だけ生成する
	store := history.NewStore(history.NewMemoryStorage(0).Scope("cli"), rt.log)
	ctrl := session.NewController(gw, store, rt.log)

	fmt.Fprintf(app.Err, "Generating %s image...\n", ratio)
	state, err := ctrl.Submit(ctx, prompt, ratio)
	if err != nil {
		return err
	}
	if state.Phase == domain.PhaseError || state.CurrentImage == nil {
		return fmt.Errorf("generation failed: %s", state.LastError)
	}

	img := state.CurrentImage
	mimeType, data, err := imgutil.DecodeDataURI(img.ImageData)
	if err != nil {
		return err
	}
	out, outMime, err := imgutil.Convert(data, mimeType, format, imgutil.DefaultJPEGQuality)
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}

	if opts.output == "-" {
		_, err := app.Out.Write(out)
		return err
	}

	path := opts.output
	if path == "" {
		path = server.DownloadFilename(img.ID, outMime)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	fmt.Fprintf(app.Out, "Saved: %s\n", path)
	return nil
}

func newEnhanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enhance [prompt]",
		Short: "Rewrite a prompt for photorealistic results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.log.Sync() }()

			gw, err := app.newGateway(cmd.Context(), rt)
			if err != nil {
				return err
			}
			res := gw.Enhance(cmd.Context(), args[0])
			if res.Degraded {
				fmt.Fprintln(app.Err, "Warning: prompt enhancement failed; showing the original prompt")
			}
			fmt.Fprintln(app.Out, res.Text)
			return nil
		},
	}
}
