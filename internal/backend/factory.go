package backend

import (
	"context"
	"fmt"
	"log/slog"

	"invoicepro/internal/amqp"
	"invoicepro/internal/config"
	"invoicepro/internal/events"
	"invoicepro/internal/events/kafka"
	"invoicepro/internal/records"
	"invoicepro/internal/records/google"
	"invoicepro/internal/records/memory"
	"invoicepro/internal/services"
	"invoicepro/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend builds the record store for config.Type and wraps it in a
// RecordService publishing to the configured broker.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store records.Store
		ping  func(context.Context) error
	)
	switch config.Type {
	case MemoryBackend:
		s, err := memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
		store = s
	case SQLiteBackend, PostgresBackend:
		repo, err := OpenRepository(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := SeedIfEmpty(ctx, repo, config.SeedFile); err != nil {
			repo.Close()
			return nil, err
		}
		f.logger.Info("Initialized SQL backend", "dialect", repo.Dialect())
		store, ping = repo, repo.Ping
	case SheetsBackend:
		cli, err := google.New(ctx, config.SheetsConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend", "spreadsheet", config.GoogleSpreadsheetID)
		store = cli
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	publisher, err := NewPublisher(config)
	if err != nil {
		// Records are still saved; the worker's pending poll catches up.
		f.logger.Warn("Failed to initialize event publisher, continuing without events", "broker", config.Broker, "error", err)
		publisher = events.Noop{}
	}

	svc := services.NewRecordService(store, publisher)
	return &BackendResult{Service: svc, Ping: ping, Cleanup: svc.Close}, nil
}

// OpenRepository opens the SQL repository for a sqlite or postgres config.
func OpenRepository(ctx context.Context, config Config) (*storage.Repository, error) {
	var (
		repo *storage.Repository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = storage.Open(ctx, storage.SQLite, config.SQLiteDBPath)
	case PostgresBackend:
		repo, err = storage.Open(ctx, storage.Postgres, config.PostgresDSN)
	default:
		return nil, fmt.Errorf("backend %s has no SQL repository", config.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", config.Type, err)
	}
	return repo, nil
}

// SeedIfEmpty loads the seed file (or the embedded demo data) into an empty
// repository.
func SeedIfEmpty(ctx context.Context, repo *storage.Repository, seedFile string) error {
	empty, err := repo.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	seed, err := memory.LoadSeed(seedFile)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	if err := repo.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed repository: %w", err)
	}
	slog.InfoContext(ctx, "Seeded empty repository", "invoices", len(seed.Invoices), "time_entries", len(seed.TimeEntries))
	return nil
}

// NewPublisher returns the publisher for config.Broker.
func NewPublisher(cfg Config) (events.Publisher, error) {
	switch cfg.Broker {
	case "", config.BrokerNone:
		return events.Noop{}, nil
	case config.BrokerAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BrokerKafka:
		return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unsupported event broker: %s", cfg.Broker)
	}
}

// NewConsumer returns the consumer for config.Broker, or nil when no broker
// is configured.
func NewConsumer(cfg Config) (events.Consumer, error) {
	switch cfg.Broker {
	case "", config.BrokerNone:
		return nil, nil
	case config.BrokerAMQP:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BrokerKafka:
		return kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil
	default:
		return nil, fmt.Errorf("unsupported event broker: %s", cfg.Broker)
	}
}
