package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ewa/internal/domain/advance"
	"ewa/internal/platform/email"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type StoreAPI interface {
	Insert(ctx context.Context, n Notification) error
	ByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	UserEmail(ctx context.Context, userID string) (string, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, n Notification) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Store) ByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, type, title, body, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications by user: %w", err)
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notifications by user: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *Store) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := s.DB.Exec(ctx,
		"UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var addr string
	err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&addr)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("user email: %w", err)
	}
	return addr, nil
}

type Service struct {
	Store        StoreAPI
	Mailer       email.Sender
	EmailEnabled bool
	Logger       *slog.Logger
}

func NewService(store StoreAPI, mailer email.Sender, emailEnabled bool, logger *slog.Logger) *Service {
	return &Service{Store: store, Mailer: mailer, EmailEnabled: emailEnabled, Logger: logger}
}

var advanceEventTitles = map[string]string{
	"advance_requested": "Advance request received",
	"advance_approved":  "Advance approved",
	"advance_disbursed": "Advance disbursed",
	"advance_rejected":  "Advance rejected",
}

// AdvanceEvent records an in-app notification for the employee and,
// when email is enabled, mirrors it to their inbox. Failures are
// logged and swallowed; notification delivery never rolls back an
// advance transition.
func (s *Service) AdvanceEvent(ctx context.Context, userID, event string, adv advance.Advance) {
	title, ok := advanceEventTitles[event]
	if !ok {
		title = "Advance update"
	}
	body := fmt.Sprintf("Your advance of %.2f is now %s.", adv.Amount, adv.Status)
	if event == "advance_rejected" && adv.RejectionReason != "" {
		body = fmt.Sprintf("Your advance of %.2f was rejected: %s", adv.Amount, adv.RejectionReason)
	}

	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      event,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Insert(ctx, n); err != nil {
		s.Logger.Error("notification insert failed",
			slog.String("user_id", userID),
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}

	if !s.EmailEnabled {
		return
	}
	addr, err := s.Store.UserEmail(ctx, userID)
	if err != nil || addr == "" {
		return
	}
	if err := s.Mailer.Send(ctx, addr, title, body); err != nil {
		s.Logger.Error("notification email failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.Store.ByUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	return s.Store.MarkRead(ctx, id, userID)
}
