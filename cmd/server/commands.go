package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mapa-cultural/core/internal/app"
	"github.com/mapa-cultural/core/internal/config"
	"github.com/mapa-cultural/core/internal/database"
	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/modules/instagram/postimage"
	"github.com/mapa-cultural/core/internal/pkg/nativelog"
	"github.com/mapa-cultural/core/internal/pkg/renderer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	envFile    string

	renderOut string

	rootCmd = &cobra.Command{
		Use:          "server",
		Short:        "Mapa Cultural site, survey and admin API",
		SilenceUsage: true,
		RunE:         runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE:  runMigrate,
	}

	renderCmd = &cobra.Command{
		Use:   "render [post.json]",
		Short: "Render an Instagram post from a JSON file to PNG files on disk",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "optional .env file loaded before the config")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "post.png", "output file; carousels get -N suffixes")

	rootCmd.AddCommand(serveCmd, migrateCmd, renderCmd)
}

// bootstrap loads the env file and the config, then builds the logger.
func bootstrap() (*config.AppConfig, *zap.Logger, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := nativelog.NewZapLogger(cfg.LogDir(), cfg.IsDev())
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("native log pipeline unavailable, fallback to zap production logger", zap.Error(err))
	}
	return cfg, logger, nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	application, err := app.New(logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("public_url", cfg.PublicURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serveErr:
		if ok {
			logger.Error("server error", zap.Error(err))
			application.Shutdown()
			return err
		}
	}

	logger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(ctx)
	application.Shutdown()
	if err != nil {
		logger.Error("forced shutdown", zap.Error(err))
		return err
	}
	logger.Info("server exited")
	return nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	return database.EnsureSchema(cfg, logger)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var p models.InstagramPostModel
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	docs, err := postimage.BuildDocuments(&p, cfg.Renderer.Width, cfg.Renderer.Height)
	if err != nil {
		return err
	}
	svc := postimage.NewService(nil, renderer.New(app.RendererOptions(cfg), logger), nil, cfg.Renderer.Width, cfg.Renderer.Height, logger)

	for i, doc := range docs {
		png, err := svc.Render(cmd.Context(), doc)
		if err != nil {
			return fmt.Errorf("render image %d/%d: %w", i+1, len(docs), err)
		}
		out := outputPath(renderOut, i, len(docs))
		if err := os.WriteFile(out, png, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}

// outputPath keeps name as is for a single image and adds -N before the extension otherwise.
func outputPath(name string, index, total int) string {
	if total <= 1 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), index+1, ext)
}
