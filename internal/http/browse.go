package httpapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/cesargomez89/catalogsync/internal/catalog"
	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/http/dto"
	"github.com/cesargomez89/catalogsync/internal/store"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	d, errs := dto.ParseCategoryDomain(r.URL.Query())
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	subID, ok := h.subscriptionID(w, r)
	if !ok {
		return
	}

	cats, err := h.Store.ListCategories(r.Context(), subID, d)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewListing(cats, 0))
}

// ListItems browses one domain of a subscription. With q set, every row of
// the filter is ranked by fuzzy title match before the limit applies.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.listItems(w, r, false)
}

// ListNew lists the items first stored on the day of the last completed sync.
func (h *Handler) ListNew(w http.ResponseWriter, r *http.Request) {
	h.listItems(w, r, true)
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request, addedOnLastSync bool) {
	q, errs := dto.ParseBrowseQuery(chi.URLParam(r, "domain"), r.URL.Query())
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}
	subID, ok := h.subscriptionID(w, r)
	if !ok {
		return
	}

	filter := store.ItemFilter{CategoryID: q.CategoryID, Limit: q.Limit, AddedOnLastSync: addedOnLastSync}
	if q.Query != "" {
		filter.Limit = 0
	}

	ctx := r.Context()
	var (
		body any
		err  error
	)
	switch q.Domain {
	case domain.DomainChannel:
		var rows []domain.Channel
		rows, err = h.Store.ListChannels(ctx, subID, filter)
		body = dto.NewListing(catalog.Rank(q.Query, rows, q.Limit), q.Limit)
	case domain.DomainMovie:
		var rows []domain.Movie
		rows, err = h.Store.ListMovies(ctx, subID, filter)
		body = dto.NewListing(catalog.Rank(q.Query, rows, q.Limit), q.Limit)
	case domain.DomainSeries:
		var rows []domain.Series
		rows, err = h.Store.ListSeries(ctx, subID, filter)
		body = dto.NewListing(catalog.Rank(q.Query, rows, q.Limit), q.Limit)
	}
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	id, errs := dto.ParseID("id", chi.URLParam(r, "id"))
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	var req dto.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	if err := h.Store.SetChannelFavorite(r.Context(), id, *req.Favorite); err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "favorite": *req.Favorite})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, errs := dto.ParseLimit(r.URL.Query(), constants.DefaultRunHistoryLimit)
	if len(errs) > 0 {
		h.writeValidation(w, errs)
		return
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dto.NewListing(dto.NewRunResponses(runs), limit))
}
