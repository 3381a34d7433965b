package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/robertarktes/seat-inventory/internal/adapters/mongo"
	"github.com/robertarktes/seat-inventory/internal/adapters/postgres"
	"github.com/robertarktes/seat-inventory/internal/adapters/rabbit"
	"github.com/robertarktes/seat-inventory/internal/config"
	"github.com/robertarktes/seat-inventory/internal/domain"
	"github.com/robertarktes/seat-inventory/internal/idempotency"
	"github.com/robertarktes/seat-inventory/internal/inventory"
)

type Handlers struct {
	cfg          *config.Config
	availability *inventory.AvailabilityService
	reservations *inventory.ReservationService
	purchases    *inventory.PurchaseService
	cancels      *inventory.CancellationService
	repo         *postgres.Repository
	idemp        *idempotency.Idempotency
	catalog      *mongoadapter.CatalogRepository
	audit        *mongoadapter.AuditLogger
	rabbitPub    *rabbit.Publisher
}

func NewHandlers(
	cfg *config.Config,
	availability *inventory.AvailabilityService,
	reservations *inventory.ReservationService,
	purchases *inventory.PurchaseService,
	cancels *inventory.CancellationService,
	repo *postgres.Repository,
	idemp *idempotency.Idempotency,
	catalog *mongoadapter.CatalogRepository,
	audit *mongoadapter.AuditLogger,
	rabbitPub *rabbit.Publisher,
) *Handlers {
	return &Handlers{
		cfg:          cfg,
		availability: availability,
		reservations: reservations,
		purchases:    purchases,
		cancels:      cancels,
		repo:         repo,
		idemp:        idemp,
		catalog:      catalog,
		audit:        audit,
		rabbitPub:    rabbitPub,
	}
}

// Availability reports claimable seat counts for the requested sections.
// GET /v1/sections/availability?ids=a,b,c
func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	var sectionIDs []uuid.UUID
	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid section id", http.StatusBadRequest)
			return
		}
		sectionIDs = append(sectionIDs, id)
	}

	counts, err := h.availability.Availability(r.Context(), sectionIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make(map[string]int, len(counts))
	for id, count := range counts {
		resp[id.String()] = count
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSeats returns every seat of a section for seat-map rendering, with
// held_at so the client can compute remaining hold time against the TTL.
func (h *Handlers) ListSeats(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}
	sectionID, err := uuid.Parse(chi.URLParam(r, "sectionID"))
	if err != nil {
		http.Error(w, "invalid section id", http.StatusBadRequest)
		return
	}

	seats, err := h.availability.ListSeats(r.Context(), eventID, sectionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type seatView struct {
		SeatID    uuid.UUID  `json:"seat_id"`
		SeatLabel string     `json:"seat_label"`
		Status    string     `json:"status"`
		HeldAt    *time.Time `json:"held_at,omitempty"`
	}
	views := make([]seatView, 0, len(seats))
	for _, s := range seats {
		views = append(views, seatView{SeatID: s.ID, SeatLabel: s.Label, Status: string(s.Status), HeldAt: s.HeldAt})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"seats":         views,
		"hold_ttl_secs": int(h.availability.HoldTTL().Seconds()),
	})
}

type seatBatchRequest struct {
	SeatIDs []uuid.UUID `json:"seat_ids"`
	BuyerID uuid.UUID   `json:"buyer_id"`
	EventID uuid.UUID   `json:"event_id"`
}

// CreateHold attempts to claim the requested seats for the caller. Partial
// success is a 200 carrying the failed seat ids; zero claims is a 409.
func (h *Handlers) CreateHold(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.replayed(w, r, key) {
		return
	}

	var req seatBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	caller, ok := CurrentBuyer(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if req.EventID != uuid.Nil {
		if _, err := h.catalog.GetEvent(r.Context(), req.EventID); err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
	}

	result, err := h.reservations.Hold(r.Context(), req.SeatIDs, req.BuyerID, caller)
	if err != nil && !errors.Is(err, domain.ErrNoSeatsHeld) {
		h.writeDomainError(w, err)
		return
	}

	h.audit.LogHold(r.Context(), req.BuyerID, result)

	status := http.StatusCreated
	switch {
	case errors.Is(err, domain.ErrNoSeatsHeld):
		status = http.StatusConflict
	case result.Partial():
		status = http.StatusOK
	}

	data, _ := json.Marshal(map[string]interface{}{
		"held_seat_ids":   result.HeldSeatIDs,
		"requested_count": result.RequestedCount,
		"held_count":      result.HeldCount,
		"failed_seat_ids": result.FailedSeatIDs,
		"hold_ttl_secs":   int(h.reservations.HoldTTL().Seconds()),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: status, Result: data})
}

// CreatePurchase converts the caller's live holds into a sale.
func (h *Handlers) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.replayed(w, r, key) {
		return
	}

	var req seatBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	caller, ok := CurrentBuyer(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := h.purchases.Purchase(r.Context(), req.SeatIDs, req.BuyerID, caller)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.audit.LogPurchase(r.Context(), req.BuyerID, orderID, req.SeatIDs)

	data, _ := json.Marshal(map[string]interface{}{"order_id": orderID})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data})
}

// CreateCancellation releases the caller's held seats. A retried request with
// the same Idempotency-Key replays the stored 204 instead of re-running the
// cancel against already-released seats.
func (h *Handlers) CreateCancellation(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.replayed(w, r, key) {
		return
	}

	var req seatBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	caller, ok := CurrentBuyer(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.cancels.Cancel(r.Context(), req.SeatIDs, req.BuyerID, caller); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.audit.LogCancel(r.Context(), req.BuyerID, req.SeatIDs)
	w.WriteHeader(http.StatusNoContent)

	h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusNoContent})
}

// GetOrder returns one of the caller's own orders. Another buyer's order id
// answers 404, same as an id that never existed.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	caller, ok := CurrentBuyer(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	order, err := h.repo.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if order.BuyerID != caller {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order_id":       order.ID,
		"buyer_id":       order.BuyerID,
		"total_amount":   order.TotalAmount,
		"payment_status": order.PaymentStatus,
		"created_at":     order.CreatedAt.Format(time.RFC3339),
		"lines":          order.Lines,
	})
}

// PaymentCallback lets the payment collaborator flip payment_status after the
// fact (reconciliation, chargebacks). The sale itself is already final.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID uuid.UUID `json:"order_id"`
		Status  string    `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	newStatus := domain.PaymentFailed
	if req.Status == "SUCCEEDED" {
		newStatus = domain.PaymentCompleted
	}
	if err := h.repo.UpdatePaymentStatus(r.Context(), req.OrderID, newStatus); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{"order_id": req.OrderID, "status": newStatus})
	msg := amqp.Publishing{
		MessageId:   uuid.New().String(),
		ContentType: "application/json",
		Body:        payload,
	}
	h.rabbitPub.Publish(r.Context(), "order.payment."+strings.ToLower(newStatus), msg)

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

// replayed writes the stored response for a repeated Idempotency-Key and
// reports whether the request was already handled.
func (h *Handlers) replayed(w http.ResponseWriter, r *http.Request, key string) bool {
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return true
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return true
	}
	return false
}

// writeDomainError maps engine errors onto the response taxonomy: validation
// 400/403, ownership and staleness conflicts 403/409, everything else 500.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrBuyerMismatch):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrNotSeatOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrHoldExpired):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrSeatNotHeld):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrNoSeatsHeld):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrSeatNotFound), errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrSerializationFailure):
		http.Error(w, "conflict, try again", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
