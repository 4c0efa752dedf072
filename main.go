package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"studyhall/apps/backend/internal/adapter/gemini"
	"studyhall/apps/backend/internal/app"
	"studyhall/apps/backend/internal/config"
	"studyhall/apps/backend/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	ai, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel, cfg.GenerationModel)
	if err != nil {
		slog.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	defer ai.Close()

	application, err := app.New(cfg, deps.DB, ai, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	var consumers []*nsq.Consumer
	if cfg.EnableEmbedWorker {
		embedConsumer, err := startConsumer(config.TopicIngestEmbed, "embed-worker", cfg.NSQLookupd, application.EmbedConsumer)
		if err != nil {
			slog.Error("failed to start embed consumer", "error", err)
			os.Exit(1)
		}
		consumers = append(consumers, embedConsumer)

		resultConsumer, err := startConsumer(config.TopicIngestResult, "backend", cfg.NSQLookupd, application.ResultConsumer)
		if err != nil {
			slog.Error("failed to start result consumer", "error", err)
			os.Exit(1)
		}
		consumers = append(consumers, resultConsumer)
	}

	defer func() {
		for _, c := range consumers {
			c.Stop()
			<-c.StopChan
		}
	}()

	if cfg.EnableAPI {
		if err := application.Run(ctx); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Worker-only mode: block until a shutdown signal arrives.
	slog.Info("running in worker-only mode")
	<-ctx.Done()
}

func startConsumer(topic, channel, lookupd string, h nsq.Handler) (*nsq.Consumer, error) {
	consumer, err := nsq.NewConsumer(topic, channel, nsq.NewConfig())
	if err != nil {
		return nil, err
	}
	consumer.AddHandler(h)
	if err := consumer.ConnectToNSQLookupd(lookupd); err != nil {
		consumer.Stop()
		return nil, err
	}
	slog.Info("NSQ consumer connected", "topic", topic, "channel", channel)
	return consumer, nil
}
