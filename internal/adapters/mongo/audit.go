package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/domain"
	"github.com/robertarktes/seat-inventory/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditLogger records who did what to which seats. Best effort; failures are
// logged and never fail the inventory operation itself.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	BuyerID   uuid.UUID `bson:"buyer_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogAction(ctx context.Context, action string, buyerID uuid.UUID, data map[string]interface{}) {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		BuyerID:   buyerID,
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	if _, err := a.coll.InsertOne(ctx, log); err != nil {
		a.logger.WithError(err).Error("failed to insert audit log")
	}
}

func (a *AuditLogger) LogHold(ctx context.Context, buyerID uuid.UUID, result domain.HoldResult) {
	a.LogAction(ctx, "seat.hold", buyerID, map[string]interface{}{
		"requested_count": result.RequestedCount,
		"held_count":      result.HeldCount,
		"held_seat_ids":   result.HeldSeatIDs,
		"failed_seat_ids": result.FailedSeatIDs,
	})
}

func (a *AuditLogger) LogPurchase(ctx context.Context, buyerID, orderID uuid.UUID, seatIDs []uuid.UUID) {
	a.LogAction(ctx, "seat.purchase", buyerID, map[string]interface{}{
		"order_id": orderID,
		"seat_ids": seatIDs,
	})
}

func (a *AuditLogger) LogCancel(ctx context.Context, buyerID uuid.UUID, seatIDs []uuid.UUID) {
	a.LogAction(ctx, "seat.cancel", buyerID, map[string]interface{}{
		"seat_ids": seatIDs,
	})
}
