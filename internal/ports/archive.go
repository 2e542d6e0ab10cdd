package ports

import (
	"context"
	"io"
	"time"
)

// ArchivedTurn is a turn row read back from Postgres.
type ArchivedTurn struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnArchive persists committed turns. Writes are best effort: the
// in-memory session store stays authoritative for the process lifetime.
type TurnArchive interface {
	SaveTurn(ctx context.Context, sessionID string, turn Turn) (int64, error)
	GetTurns(ctx context.Context, sessionID string) ([]ArchivedTurn, error)
}

// ClipStore keeps uploaded audio clips in S3-compatible storage.
type ClipStore interface {
	ObjectKey(sessionID, filename string) string
	SaveClip(ctx context.Context, key string, r io.Reader, size int64, contentType string) (publicURL string, err error)
}
