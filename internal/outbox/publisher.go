package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/seat-inventory/internal/adapters/postgres"
	"github.com/robertarktes/seat-inventory/internal/adapters/rabbit"
	"github.com/robertarktes/seat-inventory/internal/observability"
)

// Publisher drains NEW outbox rows into rabbit. Inventory writes stay
// transactional; delivery is at-least-once with the dedupe key as message id.
type Publisher struct {
	repo      *postgres.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *postgres.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := p.repo.GetUnpublishedOutbox(ctx, 50)
			if err != nil {
				p.logger.WithError(err).Error("failed to read outbox")
				continue
			}
			for _, rec := range records {
				msg := amqp.Publishing{
					MessageId:   rec.DedupeKey,
					ContentType: "application/json",
					Body:        rec.Payload,
				}
				if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
					p.logger.WithError(err).WithField("event_type", rec.EventType).Error("failed to publish outbox record")
					continue
				}
				now := time.Now()
				observability.OutboxLag.Set(now.Sub(rec.CreatedAt).Seconds())
				if err := p.repo.MarkPublished(ctx, rec.ID, now); err != nil {
					p.logger.WithError(err).Error("failed to mark outbox record published")
				}
			}
		}
	}
}
