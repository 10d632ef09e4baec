package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/complaint-intake/internal/domain/answering"
	"github.com/yanqian/complaint-intake/internal/domain/auth"
	"github.com/yanqian/complaint-intake/internal/domain/intake"
	"github.com/yanqian/complaint-intake/internal/infra/answering/chunker"
	"github.com/yanqian/complaint-intake/internal/infra/answering/embedder"
	"github.com/yanqian/complaint-intake/internal/infra/answering/llm"
	"github.com/yanqian/complaint-intake/internal/infra/config"
	"github.com/yanqian/complaint-intake/internal/infra/intake/queue"
	"github.com/yanqian/complaint-intake/internal/infra/intake/repo"
	"github.com/yanqian/complaint-intake/internal/infra/intake/storage"
	"github.com/yanqian/complaint-intake/internal/infra/llm/chatgpt"
)

func provideIntakeConfig(cfg *config.Config) intake.Config {
	return intake.Config{MaxFileBytes: cfg.HTTP.MaxUploadBytes}
}

func provideAnsweringConfig(cfg *config.Config) answering.Config {
	return answering.Config{
		DefaultSystemMessage: cfg.Answering.DefaultSystemMessage,
		ChunkSize:            cfg.Answering.ChunkSize,
		TopN:                 cfg.Answering.TopN,
		MaxPreviewChars:      cfg.Answering.MaxPreviewChars,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		FunctionKeys: cfg.Auth.FunctionKeys,
		Secret:       cfg.Auth.JWTSecret,
		Issuer:       cfg.Auth.Issuer,
		TokenTTL:     cfg.Auth.TokenTTL,
	}
}

// providePostgresPool returns a nil pool when no DSN is configured or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil, noop
	}
	logger.Info("postgres repositories enabled")
	return pool, pool.Close
}

func provideSubmissionRepository(pool *pgxpool.Pool) intake.SubmissionRepository {
	if pool == nil {
		return repo.NewMemorySubmissionRepository()
	}
	return repo.NewPostgresSubmissionRepository(pool)
}

func provideAnswerRepository(pool *pgxpool.Pool) intake.AnswerRepository {
	if pool == nil {
		return repo.NewMemoryAnswerRepository()
	}
	return repo.NewPostgresAnswerRepository(pool)
}

func provideObjectStorage(cfg *config.Config, logger *slog.Logger) intake.ObjectStorage {
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" {
		logger.Info("storage endpoint not set, keeping complaint files in memory")
		return storage.NewMemoryStorage()
	}
	buckets := make(map[intake.CategoryID]string, len(cfg.Storage.Buckets))
	for category, bucket := range cfg.Storage.Buckets {
		id := intake.CategoryID(category)
		if !id.Valid() {
			logger.Warn("ignoring bucket for unknown category", "category", category)
			continue
		}
		buckets[id] = bucket
	}
	s, err := storage.NewMinioStorage(storage.MinioOptions{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
		Buckets:   buckets,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize object storage, keeping complaint files in memory", "error", err)
		return storage.NewMemoryStorage()
	}
	logger.Info("object storage enabled", "endpoint", cfg.Storage.Endpoint, "buckets", len(buckets))
	return s
}

func provideJobQueue(cfg *config.Config, logger *slog.Logger) (queue.HandlerQueue, func()) {
	if cfg.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to in-process queue", "error", err)
			return queue.NewImmediateQueue(nil), func() {}
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to in-process queue", "error", err)
			return queue.NewImmediateQueue(nil), func() {}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to in-process queue", "error", err)
			client.Close()
		} else {
			logger.Info("valkey job queue enabled", "addr", cfg.Valkey.Addr, "key", cfg.Valkey.QueueKey)
			return queue.NewValkeyQueue(client, cfg.Valkey.QueueKey, logger), client.Close
		}
	}
	return queue.NewImmediateQueue(nil), func() {}
}

func provideIntakeQueue(q queue.HandlerQueue) intake.JobQueue {
	return q
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}

// provideChatGPTClient returns nil when no API key is configured; answering then runs offline.
func provideChatGPTClient(cfg *config.Config, logger *slog.Logger) *chatgpt.Client {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, answering with offline fallbacks")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		logger.Error("failed to create chatgpt client, answering with offline fallbacks", "error", err)
		return nil
	}
	return client
}

func provideEmbedder(cfg *config.Config, client *chatgpt.Client, logger *slog.Logger) answering.Embedder {
	if client == nil {
		return embedder.NewDeterministicEmbedder(0)
	}
	return embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, logger)
}

func provideLLM(cfg *config.Config, client *chatgpt.Client) answering.LLM {
	if client == nil {
		return llm.EchoLLM{}
	}
	return llm.NewChatGPTLLM(client, cfg.LLM.Model, cfg.LLM.Temperature)
}

func provideChunker(cfg *config.Config, logger *slog.Logger) answering.Chunker {
	counter, err := chunker.NewTiktokenCounter(cfg.Answering.TokenEncoding)
	if err != nil {
		logger.Warn("token encoding unavailable, chunking by words", "encoding", cfg.Answering.TokenEncoding, "error", err)
		return chunker.NewSimpleChunker(chunker.WordCounter{}, cfg.Answering.ChunkOverlap)
	}
	return chunker.NewSimpleChunker(counter, cfg.Answering.ChunkOverlap)
}
