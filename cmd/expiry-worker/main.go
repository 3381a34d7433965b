package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/seat-inventory/internal/adapters/postgres"
	"github.com/robertarktes/seat-inventory/internal/adapters/rabbit"
	"github.com/robertarktes/seat-inventory/internal/config"
	"github.com/robertarktes/seat-inventory/internal/observability"
)

// The reaper is hygiene only: readers and claimants already treat stale holds
// as available, so nothing breaks if this process is down for a while. It
// keeps the seats table tidy and emits hold.expired events for subscribers.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger("expiry-worker")
	observability.InitMetrics()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	rabbitPub, err := rabbit.NewPublisher(conn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	worker := NewReaper(repo, rabbitPub, logger, cfg.HoldTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, time.Minute)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown expiry worker")
}

type Reaper struct {
	repo      *postgres.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
	holdTTL   time.Duration
}

func NewReaper(repo *postgres.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger, holdTTL time.Duration) *Reaper {
	return &Reaper{repo: repo, rabbitPub: rabbitPub, logger: logger, holdTTL: holdTTL}
}

const reapBatchSize = 500

func (w *Reaper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := w.sweep(ctx, now.UTC()); err != nil {
				w.logger.WithError(err).Error("sweep failed")
			}
		}
	}
}

func (w *Reaper) sweep(ctx context.Context, now time.Time) error {
	for {
		released, err := w.repo.ReleaseStaleHolds(ctx, now.Add(-w.holdTTL), reapBatchSize)
		if err != nil {
			return err
		}
		if len(released) == 0 {
			return nil
		}

		observability.StaleHoldsReleased.Add(float64(len(released)))
		w.logger.WithField("count", len(released)).Info("released stale holds")

		payload, _ := json.Marshal(map[string]interface{}{"seat_ids": released})
		msg := amqp.Publishing{
			MessageId:   uuid.New().String(),
			ContentType: "application/json",
			Body:        payload,
		}
		if err := w.rabbitPub.Publish(ctx, "hold.expired", msg); err != nil {
			w.logger.WithError(err).Error("failed to publish hold.expired")
		}

		if len(released) < reapBatchSize {
			return nil
		}
	}
}
