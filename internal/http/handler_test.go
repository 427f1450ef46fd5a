package httpapp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/progress"
	"github.com/cesargomez89/catalogsync/internal/store"
	"github.com/cesargomez89/catalogsync/internal/syncer"
)

const testSecret = "cron-secret"

type fakeRunner struct {
	allErr   error
	oneErr   error
	outcomes []domain.Outcome
	one      domain.Outcome
	allCalls int
	oneCalls int
	lastCtx  context.Context
}

func (f *fakeRunner) RunAll(ctx context.Context) ([]domain.Outcome, error) {
	f.allCalls++
	f.lastCtx = ctx
	return f.outcomes, f.allErr
}

func (f *fakeRunner) RunOne(ctx context.Context, id int64) (domain.Outcome, error) {
	f.oneCalls++
	f.lastCtx = ctx
	return f.one, f.oneErr
}

type testEnv struct {
	db     *store.DB
	runner *fakeRunner
	hub    *progress.Hub
	router http.Handler
	sub    *domain.Subscription
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sub := &domain.Subscription{Host: "http://a.example", Username: "u", Password: "p"}
	if err := db.CreateSubscription(context.Background(), sub); err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}

	runner := &fakeRunner{}
	hub := progress.NewHub()
	h := NewHandler(runner, db, hub, logger.Discard())
	return &testEnv{
		db:     db,
		runner: runner,
		hub:    hub,
		router: NewRouter(h, RouterConfig{CronSecret: testSecret}),
		sub:    sub,
	}
}

func (e *testEnv) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := e.db.WriteCategories(ctx, []domain.Category{
		{Domain: domain.DomainChannel, ProviderCategoryID: 1, Name: "News", SubscriptionID: e.sub.ID},
		{Domain: domain.DomainChannel, ProviderCategoryID: 2, Name: "Sports", SubscriptionID: e.sub.ID},
	}); err != nil {
		t.Fatalf("WriteCategories failed: %v", err)
	}
	if _, err := e.db.WriteChannels(ctx, []domain.Channel{
		{ProviderItemID: 11, CategoryID: 1, SubscriptionID: e.sub.ID, Name: "UK | BBC News"},
		{ProviderItemID: 12, CategoryID: 1, SubscriptionID: e.sub.ID, Name: "US | News 12"},
		{ProviderItemID: 21, CategoryID: 2, SubscriptionID: e.sub.ID, Name: "Sky Sports"},
	}); err != nil {
		t.Fatalf("WriteChannels failed: %v", err)
	}
}

func (e *testEnv) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
}

func TestCronSync_Unauthorized(t *testing.T) {
	env := setupEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing header", token: ""},
		{name: "wrong secret", token: "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/cron/sync", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rec.Code)
			}
		})
	}
	if env.runner.allCalls != 0 {
		t.Errorf("Expected no runs without auth, got %d", env.runner.allCalls)
	}
}

func TestCronSync_Results(t *testing.T) {
	env := setupEnv(t)
	env.runner.outcomes = []domain.Outcome{
		{SubscriptionID: 1, Success: false, Error: "stage MOVIES failed: boom"},
		{SubscriptionID: 2, Success: true},
	}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := env.do(method, "/api/cron/sync", testSecret, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", method, rec.Code)
		}

		var body struct {
			Message string           `json:"message"`
			Results []domain.Outcome `json:"results"`
			Success bool             `json:"success"`
		}
		decode(t, rec, &body)
		if !body.Success || body.Message == "" {
			t.Errorf("Expected success with message, got %+v", body)
		}
		if len(body.Results) != 2 || body.Results[0].Success || !body.Results[1].Success {
			t.Errorf("Unexpected results: %+v", body.Results)
		}
	}
}

func TestCronSync_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "run in progress", err: syncer.ErrRunInProgress, want: http.StatusConflict},
		{name: "runner failure", err: errors.New("list subscriptions: disk I/O error"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			env.runner.allErr = tt.err

			rec := env.do(http.MethodPost, "/api/cron/sync", testSecret, nil)
			if rec.Code != tt.want {
				t.Fatalf("Expected %d, got %d", tt.want, rec.Code)
			}
			var body map[string]any
			decode(t, rec, &body)
			if body["success"] != false || body["error"] == nil {
				t.Errorf("Expected failure body, got %v", body)
			}
		})
	}
}

func TestSyncSubscription(t *testing.T) {
	env := setupEnv(t)

	env.runner.one = domain.Outcome{SubscriptionID: env.sub.ID, Success: true}
	rec := env.do(http.MethodPost, "/api/subscriptions/1/sync", testSecret, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	env.runner.oneErr = domain.ErrSubscriptionNotFound
	rec = env.do(http.MethodPost, "/api/subscriptions/9/sync", testSecret, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/api/subscriptions/abc/sync", testSecret, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if env.runner.oneCalls != 2 {
		t.Errorf("Expected 2 runner calls, got %d", env.runner.oneCalls)
	}
}

func TestListCategories(t *testing.T) {
	env := setupEnv(t)
	env.seedCatalog(t)

	rec := env.do(http.MethodGet, "/api/subscriptions/1/categories", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without domain, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/api/subscriptions/1/categories?domain=channels", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		Items []domain.Category `json:"items"`
		Count int               `json:"count"`
	}
	decode(t, rec, &body)
	if body.Count != 2 || body.Items[0].Name != "News" {
		t.Errorf("Unexpected categories: %+v", body)
	}

	rec = env.do(http.MethodGet, "/api/subscriptions/99/categories?domain=movie", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing subscription, got %d", rec.Code)
	}
}

func TestListItems(t *testing.T) {
	env := setupEnv(t)
	env.seedCatalog(t)

	tests := []struct {
		name    string
		path    string
		wantIDs []int64
	}{
		{name: "all", path: "/api/subscriptions/1/items/channel", wantIDs: []int64{21, 11, 12}},
		{name: "by category", path: "/api/subscriptions/1/items/channel?category=2", wantIDs: []int64{21}},
		{name: "search", path: "/api/subscriptions/1/items/channel?q=news", wantIDs: []int64{12, 11}},
		{name: "search with limit", path: "/api/subscriptions/1/items/channel?q=news&limit=1", wantIDs: []int64{12}},
		{name: "other domain empty", path: "/api/subscriptions/1/items/movies", wantIDs: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.path, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var body struct {
				Items []struct {
					ProviderItemID int64 `json:"provider_item_id"`
				} `json:"items"`
			}
			decode(t, rec, &body)
			if len(body.Items) != len(tt.wantIDs) {
				t.Fatalf("Expected %d items, got %d: %s", len(tt.wantIDs), len(body.Items), rec.Body.String())
			}
			for i, id := range tt.wantIDs {
				if body.Items[i].ProviderItemID != id {
					t.Errorf("Item %d: expected %d, got %d", i, id, body.Items[i].ProviderItemID)
				}
			}
		})
	}

	rec := env.do(http.MethodGet, "/api/subscriptions/1/items/music", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown domain, got %d", rec.Code)
	}
}

func TestListNew(t *testing.T) {
	env := setupEnv(t)
	env.seedCatalog(t)
	ctx := context.Background()

	itemIDs := func(path string) []int64 {
		t.Helper()
		rec := env.do(http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Items []struct {
				ProviderItemID int64 `json:"provider_item_id"`
			} `json:"items"`
		}
		decode(t, rec, &body)
		ids := make([]int64, 0, len(body.Items))
		for _, it := range body.Items {
			ids = append(ids, it.ProviderItemID)
		}
		return ids
	}

	if ids := itemIDs("/api/subscriptions/1/new/channel"); len(ids) != 0 {
		t.Errorf("Expected nothing before the first sync, got %v", ids)
	}

	if _, err := env.db.ExecContext(ctx, `UPDATE channels SET created_at = '2000-01-01 00:00:00' WHERE provider_item_id = 11`); err != nil {
		t.Fatalf("Backdating channel failed: %v", err)
	}
	if err := env.db.MarkSynced(ctx, env.sub.ID); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	ids := itemIDs("/api/subscriptions/1/new/channel")
	want := []int64{21, 12}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Item %d: expected %d, got %d", i, want[i], ids[i])
		}
	}

	if ids := itemIDs("/api/subscriptions/1/new/channel?category=2"); len(ids) != 1 || ids[0] != 21 {
		t.Errorf("Expected [21] for category 2, got %v", ids)
	}
	if ids := itemIDs("/api/subscriptions/1/new/movie"); len(ids) != 0 {
		t.Errorf("Expected no new movies, got %v", ids)
	}
	if rec := env.do(http.MethodGet, "/api/subscriptions/99/new/channel", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown subscription, got %d", rec.Code)
	}
}

func TestSetFavorite(t *testing.T) {
	env := setupEnv(t)
	env.seedCatalog(t)

	channels, err := env.db.ListChannels(context.Background(), env.sub.ID, store.ItemFilter{})
	if err != nil || len(channels) == 0 {
		t.Fatalf("ListChannels failed: %v", err)
	}
	id := channels[0].ID
	path := "/api/channels/" + strconv.FormatInt(id, 10) + "/favorite"

	if rec := env.do(http.MethodPatch, path, "", []byte(`{"favorite":true}`)); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
	if rec := env.do(http.MethodPatch, path, testSecret, []byte(`{}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing field, got %d", rec.Code)
	}
	if rec := env.do(http.MethodPatch, path, testSecret, []byte(`not json`)); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid JSON, got %d", rec.Code)
	}
	if rec := env.do(http.MethodPatch, path, testSecret, []byte(`{"favorite":true}`)); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec := env.do(http.MethodPatch, "/api/channels/9999/favorite", testSecret, []byte(`{"favorite":true}`)); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing channel, got %d", rec.Code)
	}

	channels, _ = env.db.ListChannels(context.Background(), env.sub.ID, store.ItemFilter{})
	for _, c := range channels {
		if c.ID == id && !c.IsFavorite {
			t.Error("Expected channel to be favorite")
		}
	}
}

func TestProgressAndRuns(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	now := time.Now()
	if err := env.db.CreateRun(ctx, &domain.SyncRun{ID: "run-1", SubscriptionID: env.sub.ID, Status: domain.RunStatusRunning, Stage: domain.StageChannels, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	env.hub.OnProgress(ctx, domain.ProgressEvent{SubscriptionID: env.sub.ID, RunID: "run-1", State: domain.StageChannels, Kind: domain.EventStage})

	rec := env.do(http.MethodGet, "/api/subscriptions/1/progress", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var prog struct {
		Live    *domain.ProgressEvent `json:"live"`
		LastRun *struct {
			ID string `json:"id"`
		} `json:"last_run"`
	}
	decode(t, rec, &prog)
	if prog.Live == nil || prog.Live.State != domain.StageChannels {
		t.Errorf("Expected live CHANNELS event, got %+v", prog.Live)
	}
	if prog.LastRun == nil || prog.LastRun.ID != "run-1" {
		t.Errorf("Expected last run run-1, got %+v", prog.LastRun)
	}

	rec = env.do(http.MethodGet, "/api/runs?limit=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var runs struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Limit int `json:"limit"`
	}
	decode(t, rec, &runs)
	if len(runs.Items) != 1 || runs.Limit != 5 {
		t.Errorf("Unexpected runs listing: %+v", runs)
	}

	if rec := env.do(http.MethodGet, "/api/runs?limit=0", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for limit 0, got %d", rec.Code)
	}
}

func TestProgressStream(t *testing.T) {
	env := setupEnv(t)
	env.hub.OnProgress(context.Background(), domain.ProgressEvent{SubscriptionID: env.sub.ID, State: domain.StageMovies, Kind: domain.EventStage})

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/subscriptions/1/progress/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var ev domain.ProgressEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if ev.State != domain.StageMovies {
		t.Errorf("Expected MOVIES, got %s", ev.State)
	}
}

func TestTriggersOutliveCallerCancellation(t *testing.T) {
	env := setupEnv(t)
	env.runner.one = domain.Outcome{SubscriptionID: env.sub.ID, Success: true}

	paths := []string{"/api/cron/sync", "/api/subscriptions/" + strconv.FormatInt(env.sub.ID, 10) + "/sync"}
	for _, path := range paths {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodPost, path, nil).WithContext(ctx)
		req.Header.Set("Authorization", "Bearer "+testSecret)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 from %s, got %d", path, rec.Code)
		}
		if env.runner.lastCtx == nil || env.runner.lastCtx.Err() != nil {
			t.Errorf("Expected %s to run with a live context, got %v", path, env.runner.lastCtx)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupEnv(t)

	health := env.do(http.MethodGet, "/healthz", "", nil)
	if health.Code != http.StatusOK {
		t.Errorf("Expected 200 from healthz, got %d", health.Code)
	}
	var body struct {
		Status string `json:"status"`
		Runs   struct {
			Total int `json:"total"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(health.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if body.Status != "ok" || body.Runs.Total != 0 {
		t.Errorf("Expected ok with no runs, got %+v", body)
	}
	rec := env.do(http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from metrics, got %d", rec.Code)
	}
}

func TestTriggerRateLimit(t *testing.T) {
	env := setupEnv(t)
	router := NewRouter(NewHandler(env.runner, env.db, env.hub, logger.Discard()), RouterConfig{CronSecret: testSecret, TriggerRateLimit: 1})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/sync", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	router.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("Expected first request 200, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/cron/sync", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	router.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", second.Code)
	}
}
