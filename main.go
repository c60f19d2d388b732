package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/audit"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/config"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/database"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/errtrans"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/handlers"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/llm"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/logging"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/mcp"
	mcptools "github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/mcp/tools"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/middleware"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/repositories"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/retry"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/services"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/tableaccess"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Strings("write_tables", cfg.Tables.WriteAllowList))

	ctx := context.Background()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{URL: cfg.Database.ConnectionString()})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	var sink audit.Sink
	if cfg.Audit.Persist {
		sink = repositories.NewAuditRepository(db.Pool)
	}
	auditor := audit.NewAuditor(logger, sink, cfg.Tables.DebugErrors)

	store := tableaccess.NewStore(&tableaccess.Config{
		Backend:              tableaccess.NewPgxBackend(db.Pool),
		WriteAllowList:       cfg.Tables.WriteAllowList,
		EnforceReadAllowList: cfg.Tables.EnforceReadAllowList,
		Retry: &retry.Config{
			MaxRetries:   cfg.Retry.MaxRetries,
			InitialDelay: time.Duration(cfg.Retry.InitialDelayMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Retry.MaxDelayMs) * time.Millisecond,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		Translator: errtrans.New(cfg.Tables.DebugErrors),
		Auditor:    auditor,
		Logger:     logger,
	})

	llmClient, err := llm.NewClientFromConfig(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	chatService := services.NewChatService(store, llmClient, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	chatHandler := handlers.NewChatHandler(chatService, logger)
	chatHandler.RegisterRoutes(mux)

	mcpServer := mcp.NewServer("lis-chatbot", cfg.Version, logger)
	mcptools.RegisterTableTools(mcpServer.MCP(), &mcptools.TableToolDeps{
		Store:  store,
		Logger: logger,
	})
	mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer()))

	handler := middleware.RequestLogger(logger)(mux)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting lis-chatbot",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}
