package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoreRejection records a dropped message. ID and ReceivedAt are filled in
// when empty.
func StoreRejection(ctx context.Context, r Rejection) (Rejection, error) {
	db := GetDB()
	if db == nil {
		return r, fmt.Errorf("database not initialized")
	}

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now().UTC()
	}
	if len(r.Payload) > MaxPayloadBytes {
		r.Payload = r.Payload[:MaxPayloadBytes]
	}

	query := `
		INSERT INTO message_rejections (id, received_at, message_type, chart_name, kind, detail, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, r.ID, r.ReceivedAt, r.MessageType, r.ChartName, r.Kind, r.Detail, r.Payload)
	if err != nil {
		return r, fmt.Errorf("failed to store rejection: %w", err)
	}
	return r, nil
}

// GetRecentRejections returns up to limit rejections, newest first.
func GetRecentRejections(ctx context.Context, limit int) ([]Rejection, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, received_at, message_type, chart_name, kind, detail, payload
		FROM message_rejections
		ORDER BY received_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejections: %w", err)
	}
	defer rows.Close()

	rejections := []Rejection{}
	for rows.Next() {
		var r Rejection
		if err := rows.Scan(&r.ID, &r.ReceivedAt, &r.MessageType, &r.ChartName, &r.Kind, &r.Detail, &r.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan rejection: %w", err)
		}
		rejections = append(rejections, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rejections, nil
}

// CountRejectionsByKind returns the number of stored rejections per kind.
func CountRejectionsByKind(ctx context.Context) (map[string]int, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM message_rejections GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count rejections: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan rejection count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// PruneRejections deletes rejections older than cutoff and returns how many were removed.
func PruneRejections(ctx context.Context, cutoff time.Time) (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	res, err := db.ExecContext(ctx, `DELETE FROM message_rejections WHERE received_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune rejections: %w", err)
	}
	return res.RowsAffected()
}
