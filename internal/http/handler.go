package httpapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/http/dto"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/progress"
	"github.com/cesargomez89/catalogsync/internal/store"
)

type SyncRunner interface {
	RunAll(ctx context.Context) ([]domain.Outcome, error)
	RunOne(ctx context.Context, id int64) (domain.Outcome, error)
}

// Store is the read side of the catalog plus the few writes the API exposes.
type Store interface {
	PingContext(ctx context.Context) error
	GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error)
	ListCategories(ctx context.Context, subscriptionID int64, d domain.Domain) ([]domain.Category, error)
	ListChannels(ctx context.Context, subscriptionID int64, f store.ItemFilter) ([]domain.Channel, error)
	ListMovies(ctx context.Context, subscriptionID int64, f store.ItemFilter) ([]domain.Movie, error)
	ListSeries(ctx context.Context, subscriptionID int64, f store.ItemFilter) ([]domain.Series, error)
	SetChannelFavorite(ctx context.Context, id int64, favorite bool) error
	ListRuns(ctx context.Context, limit int) ([]*domain.SyncRun, error)
	LatestRun(ctx context.Context, subscriptionID int64) (*domain.SyncRun, error)
	GetRunStats(ctx context.Context) (*store.RunStats, error)
}

type Handler struct {
	Runner   SyncRunner
	Store    Store
	Hub      *progress.Hub
	Logger   *logger.Logger
	upgrader websocket.Upgrader
}

func NewHandler(runner SyncRunner, st Store, hub *progress.Hub, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Runner: runner,
		Store:  st,
		Hub:    hub,
		Logger: log.WithComponent("http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, dto.NewErrorResponse(msg))
}

func (h *Handler) writeValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.writeJSON(w, http.StatusBadRequest, dto.NewValidationResponse(errs))
}

// subscriptionID parses {id} and checks the subscription exists. It writes
// the error response itself and returns ok=false on failure.
func (h *Handler) subscriptionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, errs := dto.ParseID("id", chi.URLParam(r, "id"))
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return 0, false
	}
	if _, err := h.Store.GetSubscription(r.Context(), id); err != nil {
		h.writeStoreError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound), errors.Is(err, store.ErrItemNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Error("Store error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.PingContext(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	stats, err := h.Store.GetRunStats(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "runs": stats})
}
