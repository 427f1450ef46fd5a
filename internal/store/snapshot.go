package store

import (
	"context"
	"fmt"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

type keyRow struct {
	Name           string `db:"name"`
	ProviderItemID int64  `db:"provider_item_id"`
	CategoryID     int64  `db:"category_id"`
}

// ItemKeys returns the natural keys of a subscription's items in one domain,
// mapped to the item name.
func (db *DB) ItemKeys(ctx context.Context, subscriptionID int64, d domain.Domain) (map[domain.NaturalKey]string, error) {
	tbl, err := itemTable(d)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT provider_item_id, category_id, name FROM %s WHERE subscription_id = ?`, tbl.table)
	var rows []keyRow
	if err := db.SelectContext(ctx, &rows, query, subscriptionID); err != nil {
		return nil, fmt.Errorf("read %s keys: %w", tbl.table, err)
	}

	keys := make(map[domain.NaturalKey]string, len(rows))
	for _, r := range rows {
		keys[domain.NaturalKey{ProviderItemID: r.ProviderItemID, CategoryID: r.CategoryID, SubscriptionID: subscriptionID}] = r.Name
	}
	return keys, nil
}

// CategoryIDs returns the provider category ids stored for a subscription and domain.
func (db *DB) CategoryIDs(ctx context.Context, subscriptionID int64, d domain.Domain) (map[int64]struct{}, error) {
	var ids []int64
	query := `SELECT provider_category_id FROM categories WHERE subscription_id = ? AND domain = ?`
	if err := db.SelectContext(ctx, &ids, query, subscriptionID, d); err != nil {
		return nil, fmt.Errorf("read category ids: %w", err)
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// DeleteItems removes the given natural keys from a domain's item table.
func (db *DB) DeleteItems(ctx context.Context, d domain.Domain, keys []domain.NaturalKey) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	tbl, err := itemTable(d)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`DELETE FROM %s WHERE provider_item_id = ? AND category_id = ? AND subscription_id = ?`, tbl.table)
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var deleted int64
	for _, k := range keys {
		res, err := stmt.ExecContext(ctx, k.ProviderItemID, k.CategoryID, k.SubscriptionID)
		if err != nil {
			return 0, fmt.Errorf("delete from %s: %w", tbl.table, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteCategoriesExcept removes the domain's categories whose provider id is
// not in keep. Items still attached to them are removed by cascade.
func (db *DB) DeleteCategoriesExcept(ctx context.Context, subscriptionID int64, d domain.Domain, keep map[int64]struct{}) (int64, error) {
	stored, err := db.CategoryIDs(ctx, subscriptionID, d)
	if err != nil {
		return 0, err
	}

	var stale []int64
	for id := range stored {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var deleted int64
	for _, id := range stale {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE provider_category_id = ? AND subscription_id = ? AND domain = ?`, id, subscriptionID, d)
		if err != nil {
			return 0, fmt.Errorf("delete category %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// CountItems returns the number of stored items for a subscription and domain.
func (db *DB) CountItems(ctx context.Context, subscriptionID int64, d domain.Domain) (int, error) {
	tbl, err := itemTable(d)
	if err != nil {
		return 0, err
	}
	var n int
	err = db.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE subscription_id = ?`, tbl.table), subscriptionID)
	return n, err
}
