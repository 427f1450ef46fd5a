package httpapp

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/http/dto"
	"github.com/cesargomez89/catalogsync/internal/metrics"
	"github.com/cesargomez89/catalogsync/internal/syncer"
)

// CronSync runs every subscription and reports one outcome per subscription.
// Stage failures are reported inside results with a 200. The run outlives a
// caller that disconnects.
func (h *Handler) CronSync(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.Runner.RunAll(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, syncer.ErrRunInProgress):
		h.respondTrigger(w, http.StatusConflict, dto.CronResponse{Error: err.Error()})
		return
	case err != nil:
		h.Logger.Error("Scheduled sync failed", "error", err)
		h.respondTrigger(w, http.StatusInternalServerError, dto.CronResponse{Error: err.Error()})
		return
	}

	if outcomes == nil {
		outcomes = []domain.Outcome{}
	}
	h.respondTrigger(w, http.StatusOK, dto.CronResponse{
		Success: true,
		Message: "Catalog sync completed",
		Results: outcomes,
	})
}

// SyncSubscription runs a single subscription on demand.
func (h *Handler) SyncSubscription(w http.ResponseWriter, r *http.Request) {
	id, errs := dto.ParseID("id", chi.URLParam(r, "id"))
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	out, err := h.Runner.RunOne(context.WithoutCancel(r.Context()), id)
	switch {
	case errors.Is(err, syncer.ErrRunInProgress):
		h.respondTrigger(w, http.StatusConflict, dto.CronResponse{Error: err.Error()})
		return
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.Logger.Error("Manual sync failed", "subscription_id", id, "error", err)
		h.respondTrigger(w, http.StatusInternalServerError, dto.CronResponse{Error: err.Error()})
		return
	}

	h.respondTrigger(w, http.StatusOK, dto.CronResponse{
		Success: out.Success,
		Message: "Subscription sync finished",
		Results: []domain.Outcome{out},
	})
}

func (h *Handler) respondTrigger(w http.ResponseWriter, status int, body dto.CronResponse) {
	metrics.TriggerRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	h.writeJSON(w, status, body)
}
