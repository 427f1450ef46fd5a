package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

var ErrItemNotFound = errors.New("catalog item not found")

// ItemFilter narrows browse queries. A nil CategoryID lists every category
// and a zero Limit returns all rows. AddedOnLastSync keeps rows created on the
// day of the subscription's last completed sync, newest first.
type ItemFilter struct {
	CategoryID      *int64
	Limit           int
	AddedOnLastSync bool
}

func (db *DB) ListCategories(ctx context.Context, subscriptionID int64, d domain.Domain) ([]domain.Category, error) {
	query := `SELECT id, domain, provider_category_id, name, subscription_id FROM categories
		WHERE subscription_id = ? AND domain = ? ORDER BY name ASC`

	var cats []domain.Category
	err := db.SelectContext(ctx, &cats, query, subscriptionID, d)
	return cats, err
}

func (db *DB) ListChannels(ctx context.Context, subscriptionID int64, f ItemFilter) ([]domain.Channel, error) {
	var rows []domain.Channel
	err := listItems(ctx, db, channelTable.table, subscriptionID, f, &rows)
	return rows, err
}

func (db *DB) ListMovies(ctx context.Context, subscriptionID int64, f ItemFilter) ([]domain.Movie, error) {
	var rows []domain.Movie
	err := listItems(ctx, db, movieTable.table, subscriptionID, f, &rows)
	return rows, err
}

func (db *DB) ListSeries(ctx context.Context, subscriptionID int64, f ItemFilter) ([]domain.Series, error) {
	var rows []domain.Series
	err := listItems(ctx, db, seriesTable.table, subscriptionID, f, &rows)
	return rows, err
}

func listItems(ctx context.Context, db *DB, table string, subscriptionID int64, f ItemFilter, dest any) error {
	query := fmt.Sprintf(`SELECT i.* FROM %s i`, table)
	if f.AddedOnLastSync {
		query += ` JOIN subscriptions s ON s.id = i.subscription_id`
	}
	query += ` WHERE i.subscription_id = ?`
	args := []any{subscriptionID}
	if f.CategoryID != nil {
		query += ` AND i.category_id = ?`
		args = append(args, *f.CategoryID)
	}
	if f.AddedOnLastSync {
		// date(NULL) never matches, so a never-synced subscription lists nothing.
		query += ` AND date(i.created_at) = date(s.synced_at) ORDER BY i.created_at DESC, i.name ASC, i.id ASC`
	} else {
		query += ` ORDER BY i.name ASC, i.id ASC`
	}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return db.SelectContext(ctx, dest, query, args...)
}

// SetChannelFavorite flags a channel. Favorites survive re-syncs because
// existing rows are never rewritten.
func (db *DB) SetChannelFavorite(ctx context.Context, id int64, favorite bool) error {
	res, err := db.ExecContext(ctx, `UPDATE channels SET is_favorite = ? WHERE id = ?`, favorite, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
