package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	mongoadapter "github.com/robertarktes/seat-inventory/internal/adapters/mongo"
	"github.com/robertarktes/seat-inventory/internal/adapters/postgres"
	"github.com/robertarktes/seat-inventory/internal/config"
	"github.com/robertarktes/seat-inventory/internal/domain"
	"github.com/robertarktes/seat-inventory/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds a demo event with three sections and their full seat blocks,
// registering the event in the catalog and provisioning seats in the store.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := observability.NewLogger("seed")

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	catalog := mongoadapter.NewCatalogRepository(mongoClient.Database("seatinv"), logger)

	eventID := uuid.New()
	sections := []domain.Section{
		{ID: uuid.New(), EventID: eventID, Name: "Floor", Price: 120, TotalSeats: 100},
		{ID: uuid.New(), EventID: eventID, Name: "Balcony", Price: 80, TotalSeats: 60},
		{ID: uuid.New(), EventID: eventID, Name: "Gallery", Price: 45, TotalSeats: 40},
	}

	ctx := context.Background()
	for _, section := range sections {
		if err := repo.ProvisionSection(ctx, section); err != nil {
			log.Fatalf("failed to provision section %s: %v", section.Name, err)
		}
		logger.WithField("section", section.Name).WithField("seats", section.TotalSeats).Info("provisioned section")
	}

	sectionDocs := make([]mongoadapter.SectionDoc, 0, len(sections))
	for _, s := range sections {
		sectionDocs = append(sectionDocs, mongoadapter.SectionDoc{ID: s.ID, Name: s.Name, Price: s.Price, TotalSeats: s.TotalSeats})
	}
	err = catalog.CreateEvent(ctx, mongoadapter.EventDoc{
		ID:       eventID,
		Name:     "Demo Concert",
		Venue:    "Main Hall",
		Date:     time.Now().AddDate(0, 1, 0),
		Sections: sectionDocs,
	})
	if err != nil {
		log.Fatalf("failed to register event in catalog: %v", err)
	}

	logger.WithField("event_id", eventID).Info("seeded demo event")
}
