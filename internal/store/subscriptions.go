package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

func (db *DB) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `INSERT INTO subscriptions (owner_ref, host, username, password, created_at, updated_at)
		VALUES (:owner_ref, :host, :username, :password, :created_at, :updated_at)`

	res, err := db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sub.ID = id
	return nil
}

func (db *DB) GetSubscription(ctx context.Context, id int64) (*domain.Subscription, error) {
	query := `SELECT id, owner_ref, host, username, password, created_at, updated_at, synced_at FROM subscriptions WHERE id = ?`

	sub := &domain.Subscription{}
	err := db.GetContext(ctx, sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (db *DB) ListSubscriptions(ctx context.Context) ([]*domain.Subscription, error) {
	query := `SELECT id, owner_ref, host, username, password, created_at, updated_at, synced_at FROM subscriptions ORDER BY id ASC`

	var subs []*domain.Subscription
	err := db.SelectContext(ctx, &subs, query)
	return subs, err
}

// MarkSynced records a completed run. Both stamps come from SQLite's clock so
// they compare against item created_at defaults.
func (db *DB) MarkSynced(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `UPDATE subscriptions SET synced_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

// DeleteSubscription removes the subscription and, through cascades, its catalog.
func (db *DB) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}
