package repository

import (
	"context"
	"database/sql"
	"time"
)

// SentMessage is one confirmed dispatch. Rows are append-only: created only
// after the carrier returned a message SID, never updated or deleted.
type SentMessage struct {
	ID           string
	ToDisplay    string // the number as the user typed it
	ToNormalized string // channel-tagged E.164 address actually dispatched to
	Body         string
	ProviderSID  string
	SentAt       time.Time
}

// SentMessageRepo handles the sent-message history log.
type SentMessageRepo struct {
	db *sql.DB
}

func NewSentMessageRepo(db *sql.DB) *SentMessageRepo { return &SentMessageRepo{db: db} }

func (r *SentMessageRepo) Append(ctx context.Context, m SentMessage) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sent_messages(id, to_display, to_normalized, body, provider_sid, sent_at)
	VALUES(?, ?, ?, ?, ?, ?);
	`, m.ID, m.ToDisplay, m.ToNormalized, m.Body, m.ProviderSID, m.SentAt)
	return err
}

// ListMostRecentFirst returns the log in reverse insertion order.
func (r *SentMessageRepo) ListMostRecentFirst(ctx context.Context) ([]SentMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, to_display, to_normalized, body, provider_sid, sent_at
	FROM sent_messages
	ORDER BY rowid DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SentMessage
	for rows.Next() {
		var m SentMessage
		if err := rows.Scan(&m.ID, &m.ToDisplay, &m.ToNormalized, &m.Body, &m.ProviderSID, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SentMessageRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sent_messages`).Scan(&n)
	return n, err
}
