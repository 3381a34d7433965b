package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/seat-inventory/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CatalogRepository is the read-only event catalog the engine consults before
// touching inventory. Events and their metadata are administered elsewhere.
type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("events"),
		logger: logger,
	}
}

type EventDoc struct {
	ID        uuid.UUID    `bson:"_id"`
	Name      string       `bson:"name"`
	Venue     string       `bson:"venue"`
	Date      time.Time    `bson:"date"`
	Sections  []SectionDoc `bson:"sections"`
	CreatedAt time.Time    `bson:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

type SectionDoc struct {
	ID         uuid.UUID `bson:"_id"`
	Name       string    `bson:"name"`
	Price      float64   `bson:"price"`
	TotalSeats int       `bson:"total_seats"`
}

func (c *CatalogRepository) GetEvent(ctx context.Context, id uuid.UUID) (*EventDoc, error) {
	var event EventDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		c.logger.WithError(err).Error("failed to get event")
		return nil, err
	}
	return &event, nil
}

func (c *CatalogRepository) CreateEvent(ctx context.Context, event EventDoc) error {
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	_, err := c.coll.InsertOne(ctx, event)
	if err != nil {
		c.logger.WithError(err).Error("failed to create event")
		return err
	}
	return nil
}
