package consumers

import (
	"context"
	"log/slog"

	"stagedoor/internal/config"
	"stagedoor/internal/database"
	"stagedoor/internal/messaging"
	"stagedoor/internal/models"
	"stagedoor/internal/repository"
	"stagedoor/internal/search"
)

// ConsumerService keeps the derived stores in step with the API: it
// mirrors event changes into Elasticsearch and ingests tickets sold by
// the external purchase flow.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	esClient, err := search.NewClient(cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	handlers := NewHandlers(repos, esClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.SubjectEventCreated, "consumers", cs.handlers.HandleEventChanged); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.SubjectEventUpdated, "consumers", cs.handlers.HandleEventChanged); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.SubjectEventDeleted, "consumers", cs.handlers.HandleEventDeleted); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.SubjectTicketPurchased, "consumers", cs.handlers.HandleTicketPurchased); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.SubjectTicketUsed, "consumers", cs.handlers.HandleTicketUsed); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

// Repos exposes the repositories for the background jobs sharing this
// process.
func (cs *ConsumerService) Repos() *repository.Repositories {
	return cs.repos
}

// Search exposes the index client for the reconciliation job.
func (cs *ConsumerService) Search() *search.Client {
	return cs.handlers.search
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
