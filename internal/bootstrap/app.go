package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docuquery/internal/ai"
	"docuquery/internal/config"
	"docuquery/internal/index"
	"docuquery/internal/model"
	"docuquery/internal/pipeline"
	"docuquery/internal/pkg/chunk"
	mysqlClient "docuquery/internal/platform/mysql"
	rabbitmqClient "docuquery/internal/platform/rabbitmq"
	redisClient "docuquery/internal/platform/redis"
	"docuquery/internal/repository"
)

type App struct {
	Config       *config.Config
	MySQL        *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	Embedder     *ai.Embedder
	Generator    *ai.Generator
	VectorIndex  index.VectorIndex
	Trigger      *pipeline.Trigger
	IngestWorker *pipeline.Worker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Company{},
		&model.User{},
		&model.Document{},
		&model.UserQuery{},
		&model.VectorEntry{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	llmClient := ai.NewOpenAICompatibleClient()
	embedder := ai.NewEmbedder(llmClient, ai.EmbeddingConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.EmbeddingModel,
		BatchSize: cfg.Ingest.EmbedBatchSize,
	})
	generator := ai.NewGenerator(llmClient, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	vectorIndex := index.NewMySQL(mysqlDB)

	chunker, err := chunk.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("build chunker failed: %w", err)
	}

	docRepo := repository.NewDocumentRepository(mysqlDB)
	processor := pipeline.NewProcessor(chunker, embedder, vectorIndex, docRepo)
	worker := pipeline.NewWorker(mqConn, processor, cfg.Ingest.IngestQueue, cfg.Ingest.DeleteQueue)
	if err := worker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	publisher := rabbitmqClient.NewTaskPublisher(mqConn)
	trigger := pipeline.NewTrigger(publisher, cfg.Ingest.IngestQueue, cfg.Ingest.DeleteQueue)

	return &App{
		Config:       cfg,
		MySQL:        mysqlDB,
		Redis:        redisCli,
		MQConn:       mqConn,
		Embedder:     embedder,
		Generator:    generator,
		VectorIndex:  vectorIndex,
		Trigger:      trigger,
		IngestWorker: worker,
		StartedAt:    time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
