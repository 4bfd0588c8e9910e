package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one admin or system action worth keeping a trail for.
type Event struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Before     any       `json:"before,omitempty"`
	After      any       `json:"after,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	IP         string    `json:"ip,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Recorder struct {
	DB     *pgxpool.Pool
	Logger *slog.Logger
}

func NewRecorder(db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	return &Recorder{DB: db, Logger: logger}
}

// Record writes the event, logging instead of failing the caller when
// the write does not land. Audit is best effort by contract; the
// action it describes has already committed.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	before, after, err := encodeStates(ev.Before, ev.After)
	if err != nil {
		r.Logger.Error("audit encode failed", slog.String("action", ev.Action), slog.String("error", err.Error()))
		return
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ev.ActorID, ev.Action, ev.EntityType, ev.EntityID, before, after, ev.RequestID, ev.IP)
	if err != nil {
		r.Logger.Error("audit write failed",
			slog.String("action", ev.Action),
			slog.String("entity_id", ev.EntityID),
			slog.String("error", err.Error()))
	}
}

func encodeStates(before, after any) ([]byte, []byte, error) {
	var beforeJSON, afterJSON []byte
	var err error
	if before != nil {
		if beforeJSON, err = json.Marshal(before); err != nil {
			return nil, nil, fmt.Errorf("encode before state: %w", err)
		}
	}
	if after != nil {
		if afterJSON, err = json.Marshal(after); err != nil {
			return nil, nil, fmt.Errorf("encode after state: %w", err)
		}
	}
	return beforeJSON, afterJSON, nil
}

func (r *Recorder) List(ctx context.Context, entityType, entityID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip, created_at
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var before, after []byte
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.Action, &ev.EntityType, &ev.EntityID, &before, &after, &ev.RequestID, &ev.IP, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit events: %w", err)
		}
		if len(before) > 0 {
			var v any
			if err := json.Unmarshal(before, &v); err == nil {
				ev.Before = v
			}
		}
		if len(after) > 0 {
			var v any
			if err := json.Unmarshal(after, &v); err == nil {
				ev.After = v
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
