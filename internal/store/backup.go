package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
)

// BackupStats counts the records written or restored.
type BackupStats struct {
	Portfolios int `json:"portfolios"`
	Events     int `json:"events"`
}

// backupRecord is one line of a backup file.
type backupRecord struct {
	Kind      string           `json:"kind"`
	Portfolio *model.Portfolio `json:"portfolio,omitempty"`
	Event     *model.Event     `json:"event,omitempty"`
}

const (
	recordPortfolio = "portfolio"
	recordEvent     = "event"
)

// WriteBackup writes every portfolio and its history to path as JSONL. The file is
// written next to path and renamed into place.
func (s Store) WriteBackup(ctx context.Context, path string) (BackupStats, error) {
	var st BackupStats
	list, err := s.ListPortfolios(ctx)
	if err != nil {
		return st, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return st, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".folio-backup-*")
	if err != nil {
		return st, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	bw := bufio.NewWriter(tmp)
	enc := json.NewEncoder(bw)
	for _, sum := range list {
		p, err := s.LoadPortfolio(ctx, sum.Login)
		if err != nil {
			return st, err
		}
		if err := enc.Encode(backupRecord{Kind: recordPortfolio, Portfolio: p}); err != nil {
			return st, err
		}
		st.Portfolios++

		evs, err := s.ListEvents(ctx, sum.Login, 0)
		if err != nil {
			return st, err
		}
		// Oldest first, so a restore replays history in order.
		for i := len(evs) - 1; i >= 0; i-- {
			if err := enc.Encode(backupRecord{Kind: recordEvent, Event: &evs[i]}); err != nil {
				return st, err
			}
			st.Events++
		}
	}
	if err := bw.Flush(); err != nil {
		return st, err
	}
	if err := tmp.Close(); err != nil {
		return st, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return st, err
	}
	s.logger().Info("backup written", zap.String("path", path), zap.Int("portfolios", st.Portfolios), zap.Int("events", st.Events))
	return st, nil
}

// RestoreBackup loads a file written by WriteBackup. Portfolios replace stored ones
// with the same login; events already present are skipped.
func (s Store) RestoreBackup(ctx context.Context, path string) (BackupStats, error) {
	var st BackupStats
	f, err := os.Open(path)
	if err != nil {
		return st, err
	}
	defer f.Close()

	var portfolios []*model.Portfolio
	var events []model.Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec backupRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return st, fmt.Errorf("parse backup line %d: %w", line, err)
		}
		switch {
		case rec.Kind == recordPortfolio && rec.Portfolio != nil:
			portfolios = append(portfolios, rec.Portfolio)
		case rec.Kind == recordEvent && rec.Event != nil:
			if strings.TrimSpace(rec.Event.ID) == "" {
				return st, fmt.Errorf("backup line %d: event has no id", line)
			}
			events = append(events, *rec.Event)
		default:
			return st, fmt.Errorf("backup line %d: unknown record %q", line, rec.Kind)
		}
	}
	if err := sc.Err(); err != nil {
		return st, err
	}

	for _, p := range portfolios {
		if err := s.SavePortfolio(ctx, p); err != nil {
			return st, fmt.Errorf("restore %s: %w", p.Login, err)
		}
		st.Portfolios++
	}
	if len(events) == 0 {
		return st, nil
	}

	db, err := s.openSQLite(ctx)
	if err != nil {
		return st, err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return st, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, ev := range events {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			return st, err
		}
		if ev.Payload == nil {
			raw = []byte("{}")
		}
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO events(id, login, type, payload_json, created_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			ev.ID, normLogin(ev.Login), ev.Type, string(raw), ev.CreatedAt.UTC().UnixMilli())
		if err != nil {
			return st, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			st.Events++
		}
	}
	if err := tx.Commit(); err != nil {
		return st, err
	}
	return st, nil
}
