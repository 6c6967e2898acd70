package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is the durable Storage implementation. The aggregation
// upsert runs in a transaction with a row lock so concurrent fan-outs for
// the same receiver cannot lose updates.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed notification storage.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

const notificationColumns = `id, receiver_id, receiver_type, type, target_id, target_type,
	aggregation_key, actors, count, read, read_at, delivered_at, created_at, updated_at`

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.ReceiverID, &n.ReceiverType, &n.Type, &n.TargetID, &n.TargetType,
		&n.AggregationKey, &n.Actors, &n.Count, &n.Read, &n.ReadAt, &n.DeliveredAt, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (s *PostgresStorage) Upsert(ctx context.Context, candidate Notification, window time.Duration) (Notification, bool, error) {
	if candidate.ID == "" {
		return Notification{}, false, ErrMissingNotificationID
	}
	if candidate.ReceiverID == "" || candidate.ReceiverType == "" {
		return Notification{}, false, ErrMissingReceiver
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Notification{}, false, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()

	// Lock the live row for this aggregation key, if any, so a concurrent
	// upsert for the same receiver serializes behind us.
	existing, err := scanNotification(tx.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE receiver_type = $1 AND receiver_id = $2 AND aggregation_key = $3 AND created_at > $4
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`,
		candidate.ReceiverType, candidate.ReceiverID, candidate.AggregationKey, now.Add(-window)))

	created := false
	var result Notification

	switch {
	case err == nil:
		actor := ""
		if len(candidate.Actors) > 0 {
			actor = candidate.Actors[0]
		}
		existing.Merge(actor)

		result, err = scanNotification(tx.QueryRow(ctx, `
			UPDATE notifications
			SET actors = $2, count = $3, read = FALSE, read_at = NULL, delivered_at = NULL, updated_at = $4
			WHERE id = $1
			RETURNING `+notificationColumns,
			existing.ID, existing.Actors, existing.Count, existing.UpdatedAt))
		if err != nil {
			return Notification{}, false, fmt.Errorf("merge notification: %w", err)
		}

	case errors.Is(err, pgx.ErrNoRows):
		created = true
		if candidate.CreatedAt.IsZero() {
			candidate.CreatedAt = now
		}
		if candidate.UpdatedAt.IsZero() {
			candidate.UpdatedAt = candidate.CreatedAt
		}
		if candidate.Count == 0 {
			candidate.Count = 1
		}

		result, err = scanNotification(tx.QueryRow(ctx, `
			INSERT INTO notifications (`+notificationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING `+notificationColumns,
			candidate.ID, candidate.ReceiverID, candidate.ReceiverType, candidate.Type,
			candidate.TargetID, candidate.TargetType, candidate.AggregationKey, candidate.Actors,
			candidate.Count, candidate.Read, candidate.ReadAt, candidate.DeliveredAt,
			candidate.CreatedAt, candidate.UpdatedAt))
		if err != nil {
			return Notification{}, false, fmt.Errorf("insert notification: %w", err)
		}

	default:
		return Notification{}, false, fmt.Errorf("lookup live notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Notification{}, false, fmt.Errorf("commit upsert tx: %w", err)
	}

	return result, created, nil
}

func (s *PostgresStorage) Get(ctx context.Context, receiverType, receiverID, notifID string) (*Notification, error) {
	n, err := scanNotification(s.pool.QueryRow(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE receiver_type = $1 AND receiver_id = $2 AND id = $3`,
		receiverType, receiverID, notifID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (s *PostgresStorage) List(ctx context.Context, receiverType, receiverID string, opts ListOptions) ([]Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE receiver_type = $1 AND receiver_id = $2`
	args := []any{receiverType, receiverID}

	if opts.OnlyUnread {
		query += ` AND read = FALSE`
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(` AND created_at > $%d`, len(args))
	}

	query += ` ORDER BY created_at DESC`

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	result := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		result = append(result, n)
	}

	return result, rows.Err()
}

func (s *PostgresStorage) MarkRead(ctx context.Context, receiverType, receiverID string, notifIDs ...string) error {
	if len(notifIDs) == 0 {
		return nil
	}

	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = now(), updated_at = now()
		WHERE receiver_type = $1 AND receiver_id = $2 AND id = ANY($3)`,
		receiverType, receiverID, notifIDs)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStorage) MarkAllRead(ctx context.Context, receiverType, receiverID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = now(), updated_at = now()
		WHERE receiver_type = $1 AND receiver_id = $2 AND read = FALSE`,
		receiverType, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStorage) MarkDelivered(ctx context.Context, receiverType, receiverID, notifID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET delivered_at = $4, updated_at = now()
		WHERE receiver_type = $1 AND receiver_id = $2 AND id = $3`,
		receiverType, receiverID, notifID, at)
	if err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStorage) CountUnread(ctx context.Context, receiverType, receiverID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM notifications
		WHERE receiver_type = $1 AND receiver_id = $2 AND read = FALSE`,
		receiverType, receiverID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) Delete(ctx context.Context, receiverType, receiverID string, notifIDs ...string) error {
	if len(notifIDs) == 0 {
		return nil
	}

	_, err := s.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE receiver_type = $1 AND receiver_id = $2 AND id = ANY($3)`,
		receiverType, receiverID, notifIDs)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}
