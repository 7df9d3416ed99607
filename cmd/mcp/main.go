package main

import (
	"context"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/docstudio/internal/adapters/mcp"
	"github.com/kirillkom/docstudio/internal/bootstrap"
	"github.com/kirillkom/docstudio/internal/config"
	"github.com/kirillkom/docstudio/internal/observability/logging"
)

const serviceName = "docstudio-mcp"

var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv_load_failed", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.New(mcpadapter.Deps{
		Sessions:  app.Sessions,
		Uploader:  app.UploadUC,
		Texts:     app.TextUC,
		Processor: app.ProcessUC,
		Previews:  app.PreviewUC,
	})

	logger.Info("mcp_stdio_starting", "backend_url", cfg.BackendURL)
	if err := mcpserver.ServeStdio(server.MCPServer(version)); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
