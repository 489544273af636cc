package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"

	"github.com/ehr/consentledger/internal/config"
	"github.com/ehr/consentledger/internal/platform/db"
	"github.com/ehr/consentledger/internal/platform/events"
	"github.com/ehr/consentledger/internal/store"
)

// app holds the long-lived dependencies shared by the server and the
// one-shot commands.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	store     *store.Store
	publisher events.Publisher

	// dbCheck is set only for the postgres store.
	dbCheck db.Checker
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	backend, check, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("create %s publisher: %w", cfg.EventsBackend, err)
	}

	var opts []store.Option
	if cfg.WatchPatientName != "" || cfg.WatchPatientID != "" {
		opts = append(opts, store.WithObserver(store.NewWatchObserver(logger, cfg.WatchPatientName, cfg.WatchPatientID)))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store.New(backend, logger, opts...),
		publisher: publisher,
		dbCheck:   check,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, db.Checker, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		return store.NewFileBackend(cfg.DataFile), nil, nil
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil, nil
	case config.BackendLevelDB:
		b, err := store.OpenLevelDB(cfg.LevelDBPath)
		if err != nil {
			return nil, nil, err
		}
		return b, nil, nil
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgresBackend(pool), db.NewChecker(pool), nil
	case config.BackendS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
				o.UsePathStyle = true
			}
		})
		return store.NewS3Backend(client, cfg.S3Bucket, cfg.S3Key), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newPublisher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case config.EventsNone:
		return events.NopPublisher{}, nil
	case config.EventsLog:
		return events.NewLogPublisher(logger), nil
	case config.EventsKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsSQS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.SQSQueueURL), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}
