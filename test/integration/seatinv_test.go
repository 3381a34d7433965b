package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/robertarktes/seat-inventory/internal/adapters/mongo"
	"github.com/robertarktes/seat-inventory/internal/adapters/postgres"
	"github.com/robertarktes/seat-inventory/internal/adapters/rabbit"
	redisadapter "github.com/robertarktes/seat-inventory/internal/adapters/redis"
	"github.com/robertarktes/seat-inventory/internal/clock"
	"github.com/robertarktes/seat-inventory/internal/config"
	"github.com/robertarktes/seat-inventory/internal/domain"
	httphandler "github.com/robertarktes/seat-inventory/internal/http"
	"github.com/robertarktes/seat-inventory/internal/idempotency"
	"github.com/robertarktes/seat-inventory/internal/inventory"
	"github.com/robertarktes/seat-inventory/internal/observability"
	"github.com/robertarktes/seat-inventory/internal/rateLimit"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const jwtSecret = "integration-test-secret"

func bearerToken(t *testing.T, buyerID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": buyerID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + signed
}

func TestIntegration_HoldPurchaseCancel(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_PASSWORD": "test", "POSTGRES_DB": "seatinv"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer pgContainer.Terminate(ctx)

	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer mongoContainer.Terminate(ctx)

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer redisContainer.Terminate(ctx)

	rabbitContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-management",
			ExposedPorts: []string{"5672/tcp", "15672/tcp"},
			WaitingFor:   wait.ForHTTP("/api/health").WithPort("15672"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitContainer.Terminate(ctx)

	pgHost, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}
	mongoHost, err := mongoContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mongoPort, err := mongoContainer.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatal(err)
	}
	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatal(err)
	}
	rabbitHost, err := rabbitContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	rabbitPort, err := rabbitContainer.MappedPort(ctx, "5672")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		PostgresDSN:  "postgres://postgres:test@" + pgHost + ":" + pgPort.Port() + "/seatinv?sslmode=disable",
		MongoURI:     "mongodb://" + mongoHost + ":" + mongoPort.Port(),
		RedisAddr:    redisHost + ":" + redisPort.Port(),
		RabbitURL:    "amqp://guest:guest@" + rabbitHost + ":" + rabbitPort.Port() + "/",
		JWTSecret:    jwtSecret,
		HoldTTL:      5 * time.Minute,
		OTLPEndpoint: "",
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatal(err)
	}

	repo := postgres.NewRepository(pool)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database("seatinv")
	logger := observability.NewLogger("integration-test")
	catalog := mongoadapter.NewCatalogRepository(mongoDB, logger)
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	rabbitPub, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		t.Fatal(err)
	}

	clk := clock.NewSystem()
	availability := inventory.NewAvailabilityService(repo, clk, cfg.HoldTTL)
	reservations := inventory.NewReservationService(repo, clk, cfg.HoldTTL)
	purchases := inventory.NewPurchaseService(repo, clk, cfg.HoldTTL)
	cancels := inventory.NewCancellationService(repo, clk, cfg.HoldTTL)

	handlers := httphandler.NewHandlers(cfg, availability, reservations, purchases, cancels, repo, idemp, catalog, audit, rabbitPub)
	srv := httptest.NewServer(httphandler.SetupRouter(handlers, logger, rl, idemp, cfg.JWTSecret))
	defer srv.Close()

	// Seed one event with a four-seat section.
	section := domain.Section{
		ID:         uuid.New(),
		EventID:    uuid.New(),
		Name:       "Floor",
		Price:      40,
		TotalSeats: 4,
	}
	if err := repo.ProvisionSection(ctx, section); err != nil {
		t.Fatal(err)
	}
	err = catalog.CreateEvent(ctx, mongoadapter.EventDoc{
		ID:    section.EventID,
		Name:  "Integration Night",
		Venue: "Test Hall",
		Date:  time.Now().Add(24 * time.Hour),
		Sections: []mongoadapter.SectionDoc{
			{ID: section.ID, Name: section.Name, Price: section.Price, TotalSeats: section.TotalSeats},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	buyer := uuid.New()
	auth := bearerToken(t, buyer)

	do := func(method, path string, body interface{}, idempKey string) *http.Response {
		t.Helper()
		var reader *bytes.Reader
		if body != nil {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		} else {
			reader = bytes.NewReader(nil)
		}
		req, err := http.NewRequest(method, srv.URL+path, reader)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", auth)
		if idempKey != "" {
			req.Header.Set("Idempotency-Key", idempKey)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// Full section is available.
	resp := do("GET", "/v1/sections/availability?ids="+section.ID.String(), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("availability status: %d", resp.StatusCode)
	}
	var counts map[string]int
	json.NewDecoder(resp.Body).Decode(&counts)
	resp.Body.Close()
	if counts[section.ID.String()] != 4 {
		t.Fatalf("expected 4 available seats, got %d", counts[section.ID.String()])
	}

	// Seat map gives us ids to claim.
	resp = do("GET", "/v1/events/"+section.EventID.String()+"/sections/"+section.ID.String()+"/seats", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seats status: %d", resp.StatusCode)
	}
	var seatsResp struct {
		Seats []struct {
			SeatID uuid.UUID `json:"seat_id"`
		} `json:"seats"`
		HoldTTLSecs int `json:"hold_ttl_secs"`
	}
	json.NewDecoder(resp.Body).Decode(&seatsResp)
	resp.Body.Close()
	if len(seatsResp.Seats) != 4 {
		t.Fatalf("expected 4 seats, got %d", len(seatsResp.Seats))
	}
	if seatsResp.HoldTTLSecs != 300 {
		t.Fatalf("expected hold_ttl_secs 300, got %d", seatsResp.HoldTTLSecs)
	}

	holdIDs := []uuid.UUID{seatsResp.Seats[0].SeatID, seatsResp.Seats[1].SeatID}
	holdReq := map[string]interface{}{
		"seat_ids": holdIDs,
		"buyer_id": buyer,
		"event_id": section.EventID,
	}
	holdKey := uuid.New().String()
	resp = do("POST", "/v1/holds", holdReq, holdKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("hold status: %d", resp.StatusCode)
	}
	var holdResp struct {
		HeldSeatIDs []uuid.UUID `json:"held_seat_ids"`
		HeldCount   int         `json:"held_count"`
	}
	json.NewDecoder(resp.Body).Decode(&holdResp)
	resp.Body.Close()
	if holdResp.HeldCount != 2 {
		t.Fatalf("expected 2 held seats, got %d", holdResp.HeldCount)
	}

	// Replaying the same Idempotency-Key returns the stored response without
	// touching inventory again.
	resp = do("POST", "/v1/holds", holdReq, holdKey)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("replayed hold status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = do("GET", "/v1/sections/availability?ids="+section.ID.String(), nil, "")
	json.NewDecoder(resp.Body).Decode(&counts)
	resp.Body.Close()
	if counts[section.ID.String()] != 2 {
		t.Fatalf("expected 2 available after hold, got %d", counts[section.ID.String()])
	}

	// Purchase both held seats.
	resp = do("POST", "/v1/purchases", map[string]interface{}{
		"seat_ids": holdIDs,
		"buyer_id": buyer,
	}, uuid.New().String())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("purchase status: %d", resp.StatusCode)
	}
	var purchaseResp struct {
		OrderID uuid.UUID `json:"order_id"`
	}
	json.NewDecoder(resp.Body).Decode(&purchaseResp)
	resp.Body.Close()

	resp = do("GET", "/v1/orders/"+purchaseResp.OrderID.String(), nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order status: %d", resp.StatusCode)
	}
	var orderResp struct {
		TotalAmount   float64 `json:"total_amount"`
		PaymentStatus string  `json:"payment_status"`
	}
	json.NewDecoder(resp.Body).Decode(&orderResp)
	resp.Body.Close()
	if orderResp.TotalAmount != 80 {
		t.Fatalf("expected total 80, got %v", orderResp.TotalAmount)
	}
	if orderResp.PaymentStatus != domain.PaymentCompleted {
		t.Fatalf("expected payment status %s, got %s", domain.PaymentCompleted, orderResp.PaymentStatus)
	}

	// Orders are scoped to their buyer; another buyer sees 404, same as an
	// id that never existed.
	otherReq, err := http.NewRequest("GET", srv.URL+"/v1/orders/"+purchaseResp.OrderID.String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	otherReq.Header.Set("Authorization", bearerToken(t, uuid.New()))
	resp, err = http.DefaultClient.Do(otherReq)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 fetching another buyer's order, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Payment collaborator confirms the charge.
	resp = do("POST", "/v1/payments/callback", map[string]interface{}{
		"order_id": purchaseResp.OrderID,
		"status":   "SUCCEEDED",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payment callback status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A sold seat can never be held again.
	resp = do("POST", "/v1/holds", map[string]interface{}{
		"seat_ids": holdIDs[:1],
		"buyer_id": buyer,
	}, uuid.New().String())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 holding a sold seat, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Hold and cancel the third seat; availability comes back.
	thirdSeat := []uuid.UUID{seatsResp.Seats[2].SeatID}
	resp = do("POST", "/v1/holds", map[string]interface{}{
		"seat_ids": thirdSeat,
		"buyer_id": buyer,
	}, uuid.New().String())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("third hold status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	cancelKey := uuid.New().String()
	resp = do("POST", "/v1/cancellations", map[string]interface{}{
		"seat_ids": thirdSeat,
		"buyer_id": buyer,
	}, cancelKey)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Retrying the cancel with the same Idempotency-Key replays the stored
	// 204 instead of re-running against already-released seats.
	resp = do("POST", "/v1/cancellations", map[string]interface{}{
		"seat_ids": thirdSeat,
		"buyer_id": buyer,
	}, cancelKey)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("replayed cancel status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A fresh cancel of the same seats fails.
	resp = do("POST", "/v1/cancellations", map[string]interface{}{
		"seat_ids": thirdSeat,
		"buyer_id": buyer,
	}, uuid.New().String())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on double cancel, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = do("GET", "/v1/sections/availability?ids="+section.ID.String(), nil, "")
	json.NewDecoder(resp.Body).Decode(&counts)
	resp.Body.Close()
	if counts[section.ID.String()] != 2 {
		t.Fatalf("expected 2 available after cancel, got %d", counts[section.ID.String()])
	}
}
