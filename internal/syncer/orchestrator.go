// Package syncer drives subscriptions through the six-stage catalog sync.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cesargomez89/catalogsync/internal/catalog"
	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/diff"
	"github.com/cesargomez89/catalogsync/internal/domain"
	"github.com/cesargomez89/catalogsync/internal/logger"
	"github.com/cesargomez89/catalogsync/internal/metrics"
	"github.com/cesargomez89/catalogsync/internal/reconcile"
)

// CatalogStore is the store surface the orchestrator writes through.
type CatalogStore interface {
	diff.KeyReader
	WriteCategories(ctx context.Context, rows []domain.Category) (domain.WriteResult, error)
	WriteChannels(ctx context.Context, rows []domain.Channel) (domain.WriteResult, error)
	WriteMovies(ctx context.Context, rows []domain.Movie) (domain.WriteResult, error)
	WriteSeries(ctx context.Context, rows []domain.Series) (domain.WriteResult, error)
	DeleteItems(ctx context.Context, d domain.Domain, keys []domain.NaturalKey) (int64, error)
	DeleteCategoriesExcept(ctx context.Context, subscriptionID int64, d domain.Domain, keep map[int64]struct{}) (int64, error)
	MarkSynced(ctx context.Context, subscriptionID int64) error
}

type Options struct {
	ChunkSize int
	Workers   int
	// Prune deletes items and categories the provider no longer returns.
	Prune bool
}

func DefaultOptions() Options {
	return Options{
		ChunkSize: constants.DefaultChunkSize,
		Workers:   constants.DefaultWorkerPoolSize,
		Prune:     true,
	}
}

type Orchestrator struct {
	provider catalog.Provider
	store    CatalogStore
	diff     *diff.Engine
	observer Observer
	logger   *logger.Logger
	validate *validator.Validate
	opts     Options
}

func NewOrchestrator(provider catalog.Provider, store CatalogStore, opts Options, observer Observer, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Default()
	}
	return &Orchestrator{
		provider: provider,
		store:    store,
		diff:     diff.NewEngine(store),
		observer: observer,
		logger:   log.WithComponent("orchestrator"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}
}

// run holds the state of one orchestrator invocation.
type run struct {
	report *domain.SyncReport
	logger *logger.Logger
	acct   domain.Account
	subID  int64
}

// Run syncs one subscription. The report is always returned; the error is a
// *domain.StageError when the machine halted in FAILED(stage).
func (o *Orchestrator) Run(ctx context.Context, sub *domain.Subscription) (*domain.SyncReport, error) {
	r := &run{
		report: domain.NewSyncReport(uuid.New().String(), sub.ID),
		acct:   sub.Account(),
		subID:  sub.ID,
	}
	r.logger = o.logger.WithRun(r.report.RunID, sub.ID)
	start := time.Now()

	o.emit(ctx, r, domain.EventStarted, nil)
	r.logger.Info("Starting sync", "host", sub.Host)

	if err := o.validate.Struct(sub); err != nil {
		return o.fail(ctx, r, domain.StageChannelCategories, time.Now(), domain.NewPermanentError("validate subscription", 0, err))
	}

	for _, d := range domain.Domains() {
		if stage, stageStart, err := o.syncDomain(ctx, r, d); err != nil {
			return o.fail(ctx, r, stage, stageStart, err)
		}
	}

	// The catalog is already written; a failed stamp only hides it from the
	// recently added listing.
	if err := o.store.MarkSynced(ctx, sub.ID); err != nil {
		r.logger.Warn("Failed to stamp sync time", "error", err)
	}

	r.report.State = domain.StageCompleted
	r.report.Success = true
	metrics.SyncRunsTotal.WithLabelValues("completed").Inc()
	o.emit(ctx, r, domain.EventFinished, nil)

	r.logger.Info("Sync completed",
		"duration", time.Since(start),
		"failed_rows", r.report.FailedCount,
		"added", countRefs(r.report.Added),
		"removed", countRefs(r.report.Removed))
	return r.report, nil
}

// syncDomain runs the category stage then the item stage of one domain.
// On error it returns the stage that failed and when that stage started.
func (o *Orchestrator) syncDomain(ctx context.Context, r *run, d domain.Domain) (domain.Stage, time.Time, error) {
	stage := domain.CategoryStage(d)
	stageStart := time.Now()
	r.report.State = stage

	before, err := o.diff.Capture(ctx, r.subID, d)
	if err != nil {
		r.logger.Warn("Previous catalog unreadable, treating sync as first", "domain", d, "error", err)
		before = nil
	}

	recs, err := o.provider.FetchCategories(ctx, r.acct, d)
	if err != nil {
		return stage, stageStart, err
	}
	cats := catalog.ToCategories(r.subID, d, recs)
	res := reconcile.New[domain.Category](o.opts.ChunkSize, o.opts.Workers).Run(ctx, cats, o.store.WriteCategories)
	r.report.Categories[d] = cats
	o.complete(ctx, r, stageResult(stage, len(cats), res), stageStart)

	stage = domain.ItemStage(d)
	stageStart = time.Now()
	r.report.State = stage

	var out itemOutcome
	switch d {
	case domain.DomainChannel:
		out, err = syncItems(ctx, o, r, d, cats, func(recs []catalog.ItemRecord) []domain.Channel {
			return catalog.ToChannels(r.acct, r.subID, recs)
		}, o.store.WriteChannels)
	case domain.DomainMovie:
		out, err = syncItems(ctx, o, r, d, cats, func(recs []catalog.ItemRecord) []domain.Movie {
			return catalog.ToMovies(r.acct, r.subID, recs)
		}, o.store.WriteMovies)
	case domain.DomainSeries:
		out, err = syncItems(ctx, o, r, d, cats, func(recs []catalog.ItemRecord) []domain.Series {
			return catalog.ToSeries(r.subID, recs)
		}, o.store.WriteSeries)
	default:
		err = fmt.Errorf("unknown domain %q", d)
	}
	if err != nil {
		return stage, stageStart, err
	}
	r.report.Categories[d] = append(r.report.Categories[d], out.placeholders...)

	if o.opts.Prune {
		keep := make(map[int64]struct{}, len(r.report.Categories[d]))
		for _, c := range r.report.Categories[d] {
			keep[c.ProviderCategoryID] = struct{}{}
		}
		out.result.Pruned = o.prune(ctx, r, d, out.keys, keep)
	}

	after, err := o.diff.Capture(ctx, r.subID, d)
	if err != nil {
		r.logger.Warn("Could not read catalog after write, delta skipped", "domain", d, "error", err)
	} else {
		delta := diff.Compare(before, after)
		r.report.Added[d] = delta.Added
		r.report.Removed[d] = delta.Removed
	}

	o.complete(ctx, r, out.result, stageStart)
	return "", time.Time{}, nil
}

type itemOutcome struct {
	keys         map[domain.NaturalKey]struct{}
	placeholders []domain.Category
	result       domain.StageResult
}

func syncItems[T domain.CatalogItem](
	ctx context.Context,
	o *Orchestrator,
	r *run,
	d domain.Domain,
	cats []domain.Category,
	convert func([]catalog.ItemRecord) []T,
	write reconcile.WriteFunc[T],
) (itemOutcome, error) {
	recs, err := o.fetchItems(ctx, r, d, cats)
	if err != nil {
		return itemOutcome{}, err
	}
	rows := catalog.Dedupe(convert(recs))

	out := itemOutcome{keys: make(map[domain.NaturalKey]struct{}, len(rows))}
	listed := make(map[int64]struct{}, len(cats))
	for _, c := range cats {
		listed[c.ProviderCategoryID] = struct{}{}
	}
	var missing []int64
	for _, row := range rows {
		k := row.Key()
		out.keys[k] = struct{}{}
		if _, ok := listed[k.CategoryID]; !ok {
			listed[k.CategoryID] = struct{}{}
			missing = append(missing, k.CategoryID)
		}
	}

	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		out.placeholders = catalog.PlaceholderCategories(r.subID, d, missing)
		pres := reconcile.New[domain.Category](o.opts.ChunkSize, o.opts.Workers).Run(ctx, out.placeholders, o.store.WriteCategories)
		if pres.Failed > 0 {
			r.logger.Warn("Placeholder categories failed", "domain", d, "failed", pres.Failed, "error", pres.FirstErr)
		}
	}

	res := reconcile.New[T](o.opts.ChunkSize, o.opts.Workers).Run(ctx, rows, write)
	metrics.RecordRows(string(d), res.Inserted, res.Skipped, res.Failed)

	out.result = stageResult(domain.ItemStage(d), len(rows), res)
	out.result.Placeholders = len(out.placeholders)
	return out, nil
}

// fetchItems uses the bulk call when the provider offers one and otherwise
// walks the categories fetched in the previous stage.
func (o *Orchestrator) fetchItems(ctx context.Context, r *run, d domain.Domain, cats []domain.Category) ([]catalog.ItemRecord, error) {
	if catalog.SupportsBulk(o.provider) {
		return o.provider.FetchItems(ctx, r.acct, d, "")
	}

	var all []catalog.ItemRecord
	for _, c := range cats {
		id := strconv.FormatInt(c.ProviderCategoryID, 10)
		recs, err := o.provider.FetchItems(ctx, r.acct, d, id)
		if err != nil {
			return nil, err
		}
		// Some panels leave category_id off per-category responses.
		for i := range recs {
			if recs[i].CategoryID.Int() == 0 {
				recs[i].CategoryID = catalog.FlexString(id)
			}
		}
		all = append(all, recs...)
	}
	return all, nil
}

// prune removes rows the provider stopped returning. Failures are logged and
// leave the rows in place for the next run.
func (o *Orchestrator) prune(ctx context.Context, r *run, d domain.Domain, fetched map[domain.NaturalKey]struct{}, keepCategories map[int64]struct{}) int64 {
	stored, err := o.store.ItemKeys(ctx, r.subID, d)
	if err != nil {
		r.logger.Warn("Prune skipped", "domain", d, "error", err)
		return 0
	}

	var stale []domain.NaturalKey
	for k := range stored {
		if _, ok := fetched[k]; !ok {
			stale = append(stale, k)
		}
	}

	deleted, err := o.store.DeleteItems(ctx, d, stale)
	if err != nil {
		r.logger.Warn("Failed to prune items", "domain", d, "error", err)
	}
	if _, err := o.store.DeleteCategoriesExcept(ctx, r.subID, d, keepCategories); err != nil {
		r.logger.Warn("Failed to prune categories", "domain", d, "error", err)
	}
	return deleted
}

func stageResult(stage domain.Stage, fetched int, res reconcile.Result) domain.StageResult {
	sr := domain.StageResult{
		Stage:    stage,
		Fetched:  fetched,
		Inserted: res.Inserted,
		Skipped:  res.Skipped,
		Failed:   res.Failed,
	}
	if res.FirstErr != nil {
		sr.Error = res.FirstErr.Error()
	}
	return sr
}

func (o *Orchestrator) complete(ctx context.Context, r *run, sr domain.StageResult, started time.Time) {
	elapsed := time.Since(started)
	sr.DurationMS = elapsed.Milliseconds()
	metrics.StageDuration.WithLabelValues(string(sr.Stage)).Observe(elapsed.Seconds())

	r.report.Stages = append(r.report.Stages, sr)
	r.report.FailedCount += sr.Failed
	r.report.Progress.Completed++

	log := r.logger.WithStage(string(sr.Stage))
	if sr.Failed > 0 {
		log.Warn("Stage completed with failed rows", "failed", sr.Failed, "error", sr.Error)
	} else {
		log.Debug("Stage completed", "inserted", sr.Inserted, "skipped", sr.Skipped, "pruned", sr.Pruned)
	}
	o.emit(ctx, r, domain.EventStage, &sr)
}

func (o *Orchestrator) fail(ctx context.Context, r *run, stage domain.Stage, started time.Time, err error) (*domain.SyncReport, error) {
	err = domain.Escalate(err)
	sr := domain.StageResult{Stage: stage, Error: err.Error(), DurationMS: time.Since(started).Milliseconds()}

	r.report.Stages = append(r.report.Stages, sr)
	r.report.State = domain.StageFailed
	r.report.FailedStage = stage
	r.report.Error = err.Error()
	r.report.Success = false

	metrics.SyncRunsTotal.WithLabelValues("failed").Inc()
	r.logger.Error("Sync halted", "stage", stage, "error", err)
	o.emit(ctx, r, domain.EventFinished, &sr)

	return r.report, &domain.StageError{Stage: stage, Err: err}
}

func (o *Orchestrator) emit(ctx context.Context, r *run, kind domain.EventKind, sr *domain.StageResult) {
	if o.observer == nil {
		return
	}
	ev := domain.ProgressEvent{
		At:             time.Now(),
		Result:         sr,
		Kind:           kind,
		RunID:          r.report.RunID,
		State:          r.report.State,
		Error:          r.report.Error,
		Progress:       r.report.Progress,
		SubscriptionID: r.subID,
	}
	o.observer.OnProgress(ctx, ev)
}

func countRefs(m map[domain.Domain][]domain.ItemRef) int {
	n := 0
	for _, refs := range m {
		n += len(refs)
	}
	return n
}
