package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/noor-latif/open-cv-gen/internal/analyzer"
	"github.com/noor-latif/open-cv-gen/internal/api"
	"github.com/noor-latif/open-cv-gen/internal/chat"
	"github.com/noor-latif/open-cv-gen/internal/config"
	"github.com/noor-latif/open-cv-gen/internal/gateway"
	"github.com/noor-latif/open-cv-gen/internal/ingest"
	"github.com/noor-latif/open-cv-gen/internal/profile"
	"github.com/noor-latif/open-cv-gen/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the opencv server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpEnabled, _ := cmd.Flags().GetBool("mcp")
		return runServer(mcpEnabled)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show opencv system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also expose the MCP server over stdio")
}

func runServer(mcpEnabled bool) error {
	fmt.Fprintf(os.Stderr, "opencv version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	gw := gateway.NewClient(cfg.Gateway.APIKey, cfg.Gateway.BaseURL, cfg.Gateway.Model)
	profiles := profile.NewService(store)
	anlz := analyzer.New(gw)

	handler := api.NewHandler(api.Deps{
		Store:     store,
		Profiles:  profiles,
		Session:   chat.NewSession(gw, cfg.Gateway.Model),
		Analyzer:  anlz,
		Extractor: ingest.New(nil),
		JWTSecret: cfg.Auth.JWTSecret,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("opencv listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if mcpEnabled {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Profiles: profiles,
			Analyzer: anlz,
			UserID:   localUser,
		})
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			err := server.NewStdioServer(mcpSrv).Listen(gCtx, os.Stdin, os.Stdout)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Model", "%s", cfg.Gateway.Model)
	printStatus("Gateway", "%s", cfg.Gateway.BaseURL)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
