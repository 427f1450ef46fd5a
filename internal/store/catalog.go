package store

import (
	"context"
	"fmt"

	"github.com/cesargomez89/catalogsync/internal/constants"
	"github.com/cesargomez89/catalogsync/internal/domain"
)

// tableDef describes how one table is written. insert must not carry a
// conflict clause; conflict is appended in on_conflict mode and exists is
// consulted per row in check_then_insert mode.
type tableDef struct {
	table    string
	insert   string
	conflict string
	exists   string
}

// category_ref is resolved inside the insert so an item whose category is
// missing fails its NOT NULL constraint instead of being orphaned.
var (
	categoryTable = tableDef{
		table: "categories",
		insert: `INSERT INTO categories (domain, provider_category_id, name, subscription_id)
			VALUES (:domain, :provider_category_id, :name, :subscription_id)`,
		conflict: ` ON CONFLICT(provider_category_id, subscription_id, domain) DO NOTHING`,
		exists:   `SELECT COUNT(*) FROM categories WHERE provider_category_id = ? AND subscription_id = ? AND domain = ?`,
	}

	channelTable = tableDef{
		table: "channels",
		insert: `INSERT INTO channels (provider_item_id, category_id, subscription_id, category_ref, name, stream_type, stream_icon, url)
			VALUES (:provider_item_id, :category_id, :subscription_id,
				(SELECT id FROM categories WHERE provider_category_id = :category_id AND subscription_id = :subscription_id AND domain = 'channel'),
				:name, :stream_type, :stream_icon, :url)`,
		conflict: ` ON CONFLICT(provider_item_id, category_id, subscription_id) DO NOTHING`,
		exists:   `SELECT COUNT(*) FROM channels WHERE provider_item_id = ? AND category_id = ? AND subscription_id = ?`,
	}

	movieTable = tableDef{
		table: "movies",
		insert: `INSERT INTO movies (provider_item_id, category_id, subscription_id, category_ref, name, stream_type, stream_icon, rating, added, container_extension, url)
			VALUES (:provider_item_id, :category_id, :subscription_id,
				(SELECT id FROM categories WHERE provider_category_id = :category_id AND subscription_id = :subscription_id AND domain = 'movie'),
				:name, :stream_type, :stream_icon, :rating, :added, :container_extension, :url)`,
		conflict: ` ON CONFLICT(provider_item_id, category_id, subscription_id) DO NOTHING`,
		exists:   `SELECT COUNT(*) FROM movies WHERE provider_item_id = ? AND category_id = ? AND subscription_id = ?`,
	}

	seriesTable = tableDef{
		table: "series",
		insert: `INSERT INTO series (provider_item_id, category_id, subscription_id, category_ref, name, cover, plot, cast, director, genre,
				release_date, last_modified, rating, backdrop_path, youtube_trailer, episode_run_time)
			VALUES (:provider_item_id, :category_id, :subscription_id,
				(SELECT id FROM categories WHERE provider_category_id = :category_id AND subscription_id = :subscription_id AND domain = 'series'),
				:name, :cover, :plot, :cast, :director, :genre,
				:release_date, :last_modified, :rating, :backdrop_path, :youtube_trailer, :episode_run_time)`,
		conflict: ` ON CONFLICT(provider_item_id, category_id, subscription_id) DO NOTHING`,
		exists:   `SELECT COUNT(*) FROM series WHERE provider_item_id = ? AND category_id = ? AND subscription_id = ?`,
	}
)

func itemTable(d domain.Domain) (tableDef, error) {
	switch d {
	case domain.DomainChannel:
		return channelTable, nil
	case domain.DomainMovie:
		return movieTable, nil
	case domain.DomainSeries:
		return seriesTable, nil
	}
	return tableDef{}, fmt.Errorf("unknown domain %q", d)
}

func itemKeyArgs[T domain.CatalogItem](row T) []any {
	k := row.Key()
	return []any{k.ProviderItemID, k.CategoryID, k.SubscriptionID}
}

// WriteCategories inserts a chunk of categories, skipping existing natural keys.
func (db *DB) WriteCategories(ctx context.Context, rows []domain.Category) (domain.WriteResult, error) {
	return writeChunk(ctx, db, categoryTable, rows, func(c domain.Category) []any {
		return []any{c.ProviderCategoryID, c.SubscriptionID, c.Domain}
	})
}

func (db *DB) WriteChannels(ctx context.Context, rows []domain.Channel) (domain.WriteResult, error) {
	return writeChunk(ctx, db, channelTable, rows, itemKeyArgs[domain.Channel])
}

func (db *DB) WriteMovies(ctx context.Context, rows []domain.Movie) (domain.WriteResult, error) {
	return writeChunk(ctx, db, movieTable, rows, itemKeyArgs[domain.Movie])
}

func (db *DB) WriteSeries(ctx context.Context, rows []domain.Series) (domain.WriteResult, error) {
	return writeChunk(ctx, db, seriesTable, rows, itemKeyArgs[domain.Series])
}

// writeChunk writes rows in one transaction. A row that violates a constraint
// other than its natural key is counted as failed without aborting the others.
// The returned error is reserved for chunk-level failures.
func writeChunk[T any](ctx context.Context, db *DB, tbl tableDef, rows []T, keyArgs func(T) []any) (domain.WriteResult, error) {
	var res domain.WriteResult
	if len(rows) == 0 {
		return res, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin %s chunk: %w", tbl.table, err)
	}
	defer func() { _ = tx.Rollback() }()

	checkFirst := db.writeMode == constants.WriteModeCheckThenWrite
	query := tbl.insert
	if !checkFirst {
		query += tbl.conflict
	}

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return res, fmt.Errorf("prepare %s insert: %w", tbl.table, err)
	}
	defer stmt.Close()

	recordFailure := func(err error) {
		res.Failed++
		if res.FirstErr == nil {
			res.FirstErr = fmt.Errorf("%s row: %w", tbl.table, err)
		}
	}

	for _, row := range rows {
		if checkFirst {
			var n int
			if err := tx.GetContext(ctx, &n, tbl.exists, keyArgs(row)...); err != nil {
				recordFailure(err)
				continue
			}
			if n > 0 {
				res.Skipped++
				continue
			}
		}

		r, err := stmt.ExecContext(ctx, row)
		if err != nil {
			recordFailure(err)
			continue
		}
		n, err := r.RowsAffected()
		if err != nil {
			recordFailure(err)
			continue
		}
		if n == 0 {
			res.Skipped++
		} else {
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.WriteResult{}, fmt.Errorf("commit %s chunk: %w", tbl.table, err)
	}
	return res, nil
}
