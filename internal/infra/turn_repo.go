package infra

import (
	"context"
	"database/sql"
	"time"

	"voicechat/internal/ports"
)

type turnRepo struct {
	db *sql.DB
}

func NewTurnRepo(db *sql.DB) ports.TurnArchive {
	return &turnRepo{db: db}
}

func (r *turnRepo) SaveTurn(ctx context.Context, sessionID string, turn ports.Turn) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO turns (session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, sessionID, string(turn.Role), turn.Content, time.Now()).Scan(&id)
	return id, err
}

func (r *turnRepo) GetTurns(ctx context.Context, sessionID string) ([]ports.ArchivedTurn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM turns
		WHERE session_id = $1
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []ports.ArchivedTurn
	for rows.Next() {
		var t ports.ArchivedTurn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}
