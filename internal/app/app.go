package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"studyhall/apps/backend/features/chat"
	"studyhall/apps/backend/features/document"
	"studyhall/apps/backend/features/job"
	"studyhall/apps/backend/features/material"
	"studyhall/apps/backend/features/stats"
	"studyhall/apps/backend/features/workspace"
	"studyhall/apps/backend/internal/chunk"
	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/middleware"
	"studyhall/apps/backend/internal/retrieval"
	"studyhall/apps/backend/internal/text"
	"studyhall/apps/backend/internal/worker"
)

// AIClient is the provider surface the app needs: embedding and generation.
type AIClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, messages []retrieval.Message, opts retrieval.GenerateOptions) (*retrieval.GenerateResult, error)
}

type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler        http.Handler
	EmbedConsumer  *worker.EmbedConsumer
	ResultConsumer *worker.ResultConsumer

	port int
}

func New(cfg *config.Config, db *sql.DB, ai AIClient, taskPub TaskPublisher) (*App, error) {
	chunkRepo := chunk.NewPostgresRepo(db)
	chunker := text.NewChunker(cfg.ChunkMaxTokens)

	// Feature: Workspace
	wsRepo := workspace.NewPostgresRepo(db)
	wsHandler := workspace.NewHandler(workspace.NewService(wsRepo))

	// Feature: Job
	jobRepo := job.NewPostgresRepo(db)
	jobHandler := job.NewHandler(job.NewService(jobRepo, taskPub))

	// Feature: Document
	docRepo := document.NewPostgresRepo(db)
	docService := document.NewService(docRepo, chunkRepo, jobRepo, taskPub, chunker)
	docHandler := document.NewHandler(docService)

	// Retrieval engine
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(ai, ai, chunkRepo, queryLogger, retrieval.Options{
		Budget:             cfg.ContextBudgetChars,
		ChatTopK:           cfg.ChatTopK,
		CrossWorkspaceTopK: cfg.CrossWorkspaceTopK,
		EmbedTimeout:       time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
		GenerateTimeout:    time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
	})

	chatHandler := chat.NewHandler(retrievalService)
	materialHandler := material.NewHandler(material.NewService(retrievalService))
	statsHandler := stats.NewHandler(wsRepo, docRepo, chunkRepo, jobRepo)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-ID")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.CorrelationID(enableCORS(func(w http.ResponseWriter, r *http.Request) {
			middleware.RequireUser(h).ServeHTTP(w, r)
		}))
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /workspaces", protected(wsHandler.Create))
	mux.Handle("GET /workspaces", protected(wsHandler.List))
	mux.Handle("GET /workspaces/{id}", protected(wsHandler.Get))
	mux.Handle("PUT /workspaces/{id}", protected(wsHandler.Rename))
	mux.Handle("DELETE /workspaces/{id}", protected(wsHandler.Delete))

	mux.Handle("POST /workspaces/{id}/documents", protected(docHandler.Upload))
	mux.Handle("GET /workspaces/{id}/documents", protected(docHandler.List))
	mux.Handle("GET /documents/{id}", protected(docHandler.Get))
	mux.Handle("DELETE /documents/{id}", protected(docHandler.Delete))

	mux.Handle("GET /jobs", protected(jobHandler.List))
	mux.Handle("GET /jobs/{id}", protected(jobHandler.Get))
	mux.Handle("POST /jobs/{id}/retry", protected(jobHandler.Retry))

	mux.Handle("POST /chat", protected(chatHandler.Chat))
	mux.Handle("POST /materials", protected(materialHandler.Generate))

	mux.Handle("GET /stats", protected(statsHandler.GetStats))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:        mux,
		EmbedConsumer:  worker.NewEmbedConsumer(ai, chunkRepo, taskPub),
		ResultConsumer: worker.NewResultConsumer(jobRepo),
		port:           cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
