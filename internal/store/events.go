package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"portfolio-cli/internal/model"
)

// AppendEvent records one history entry for login.
func (s Store) AppendEvent(ctx context.Context, login, typ string, payload map[string]any) error {
	login = normLogin(login)
	typ = strings.TrimSpace(typ)
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO events(id, login, type, payload_json, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		model.NewEventID(), login, typ, string(raw), time.Now().UTC().UnixMilli())
	return err
}

// ListEvents returns login's history, newest first. limit <= 0 returns everything.
func (s Store) ListEvents(ctx context.Context, login string, limit int) ([]model.Event, error) {
	login = normLogin(login)
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, login, type, payload_json, created_at_unixms FROM events WHERE login = ?
		ORDER BY created_at_unixms DESC, rowid DESC`
	args := []any{login}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		var ev model.Event
		var raw string
		var ms int64
		if err := rows.Scan(&ev.ID, &ev.Login, &ev.Type, &raw, &ms); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &ev.Payload); err != nil {
			return nil, err
		}
		ev.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
