package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-cli/internal/model"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// PortfolioSummary is one row of ListPortfolios.
type PortfolioSummary struct {
	Login     string    `json:"login" yaml:"login"`
	Name      string    `json:"name" yaml:"name"`
	Projects  int       `json:"projects" yaml:"projects"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	// WAL allows one writer alongside readers; busy_timeout covers short write overlaps.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			login TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			login TEXT NOT NULL REFERENCES portfolios(login) ON DELETE CASCADE,
			id TEXT NOT NULL,
			rank TEXT NOT NULL,
			added_at_unixms INTEGER NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (login, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_rank ON projects(login, rank);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			login TEXT NOT NULL,
			type TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_login ON events(login, created_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func normLogin(login string) string { return strings.ToLower(strings.TrimSpace(login)) }

// SavePortfolio writes p and all of its projects, replacing what was stored for the
// login. Projects keep their current ranks when those are already in order; the rest
// are ranked between their neighbors. p is updated in place with the assigned ids,
// ranks and timestamps.
func (s Store) SavePortfolio(ctx context.Context, p *model.Portfolio) error {
	if p == nil {
		return errors.New("nil portfolio")
	}
	login := normLogin(p.Login)
	if login == "" {
		return errors.New("portfolio has no login")
	}
	p.Login = login

	return s.withWriteLock(ctx, func() error {
		db, err := s.openSQLite(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		// Timestamps are stored at millisecond precision in both the columns and the json.
		now := time.Now().UTC().Truncate(time.Millisecond)
		var createdMs int64
		err = tx.QueryRowContext(ctx, `SELECT created_at_unixms FROM portfolios WHERE login = ?`, login).Scan(&createdMs)
		switch {
		case err == nil:
			p.CreatedAt = time.UnixMilli(createdMs).UTC()
		case errors.Is(err, sql.ErrNoRows):
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
		default:
			return err
		}
		p.UpdatedAt = now

		seen := map[string]bool{}
		for i := range p.Projects {
			pr := &p.Projects[i]
			if strings.TrimSpace(pr.ID) == "" || seen[pr.ID] {
				pr.ID = model.NewProjectID()
			}
			seen[pr.ID] = true
			if pr.AddedAt.IsZero() {
				pr.AddedAt = now
			}
			pr.AddedAt = pr.AddedAt.UTC().Truncate(time.Millisecond)
		}
		changed, err := AssignRanks(p.Projects)
		if err != nil {
			return fmt.Errorf("assign ranks: %w", err)
		}

		head := *p
		head.Projects = nil
		raw, err := json.Marshal(head)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO portfolios(login, name, json, created_at_unixms, updated_at_unixms)
			VALUES(?, ?, ?, ?, ?)
			ON CONFLICT(login) DO UPDATE SET name = excluded.name, json = excluded.json, updated_at_unixms = excluded.updated_at_unixms`,
			login, p.Name, string(raw), p.CreatedAt.UnixMilli(), now.UnixMilli()); err != nil {
			return err
		}

		// Replace-all for the login's projects.
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE login = ?`, login); err != nil {
			return err
		}
		for _, pr := range p.Projects {
			raw, err := json.Marshal(pr)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO projects(login, id, rank, added_at_unixms, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
				login, pr.ID, pr.Rank, pr.AddedAt.UTC().UnixMilli(), string(raw), now.UnixMilli()); err != nil {
				return err
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.logger().Debug("portfolio written",
			zap.String("login", login),
			zap.Int("projects", len(p.Projects)),
			zap.Int("reranked", len(changed)))
		return nil
	})
}

// LoadPortfolio returns the stored portfolio for login with projects in rank order.
func (s Store) LoadPortfolio(ctx context.Context, login string) (*model.Portfolio, error) {
	login = normLogin(login)
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return loadPortfolio(ctx, db, login)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadPortfolio(ctx context.Context, q queryer, login string) (*model.Portfolio, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT json FROM portfolios WHERE login = ?`, login).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError{Kind: "portfolio", ID: login}
	}
	if err != nil {
		return nil, err
	}
	var p model.Portfolio
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode portfolio %s: %w", login, err)
	}
	ps, err := loadProjects(ctx, q, login)
	if err != nil {
		return nil, err
	}
	p.Projects = ps
	if p.Skills == nil {
		p.Skills = []string{}
	}
	return &p, nil
}

func loadProjects(ctx context.Context, q queryer, login string) ([]model.Project, error) {
	rows, err := q.QueryContext(ctx, `SELECT rank, json FROM projects WHERE login = ?`, login)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		var rank, raw string
		if err := rows.Scan(&rank, &raw); err != nil {
			return nil, err
		}
		var pr model.Project
		if err := json.Unmarshal([]byte(raw), &pr); err != nil {
			return nil, err
		}
		// The column is authoritative; rank moves only touch it.
		pr.Rank = rank
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortProjects(out)
	return out, nil
}

// ListPortfolios summarizes every stored portfolio, most recently updated first.
func (s Store) ListPortfolios(ctx context.Context) ([]PortfolioSummary, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT p.login, p.name, p.updated_at_unixms,
		(SELECT COUNT(1) FROM projects pr WHERE pr.login = p.login)
		FROM portfolios p ORDER BY p.updated_at_unixms DESC, p.login`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PortfolioSummary{}
	for rows.Next() {
		var sum PortfolioSummary
		var updatedMs int64
		if err := rows.Scan(&sum.Login, &sum.Name, &updatedMs, &sum.Projects); err != nil {
			return nil, err
		}
		sum.UpdatedAt = time.UnixMilli(updatedMs).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// LatestPortfolio returns the most recently updated portfolio.
func (s Store) LatestPortfolio(ctx context.Context) (*model.Portfolio, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var login string
	err = db.QueryRowContext(ctx, `SELECT login FROM portfolios ORDER BY updated_at_unixms DESC, login LIMIT 1`).Scan(&login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError{Kind: "portfolio", ID: "latest"}
	}
	if err != nil {
		return nil, err
	}
	return loadPortfolio(ctx, db, login)
}

// DeletePortfolio removes a portfolio, its projects and its history.
func (s Store) DeletePortfolio(ctx context.Context, login string) error {
	login = normLogin(login)
	return s.withWriteLock(ctx, func() error {
		db, err := s.openSQLite(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE login = ?`, login)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return NotFoundError{Kind: "portfolio", ID: login}
		}
		for _, q := range []string{`DELETE FROM projects WHERE login = ?`, `DELETE FROM events WHERE login = ?`} {
			if _, err := tx.ExecContext(ctx, q, login); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// MoveProject moves a stored project to insertAt (splice semantics) by rewriting only the
// ranks that the move requires.
func (s Store) MoveProject(ctx context.Context, login, projectID string, insertAt int) error {
	_, err := s.MoveProjectPlan(ctx, login, projectID, insertAt)
	return err
}

// MoveProjectPlan is MoveProject that also returns the applied plan.
func (s Store) MoveProjectPlan(ctx context.Context, login, projectID string, insertAt int) (ReorderPlan, error) {
	login = normLogin(login)
	var plan ReorderPlan
	err := s.withWriteLock(ctx, func() error {
		db, err := s.openSQLite(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		tx, err := db.BeginTx(ctx, &sql.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM portfolios WHERE login = ?`, login).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return NotFoundError{Kind: "portfolio", ID: login}
		}
		ps, err := loadProjects(ctx, tx, login)
		if err != nil {
			return err
		}
		plan, err = PlanReorder(ps, projectID, insertAt)
		if err != nil {
			return err
		}
		nowMs := time.Now().UTC().UnixMilli()
		for id, rank := range plan.RankByID {
			if _, err := tx.ExecContext(ctx, `UPDATE projects SET rank = ?, updated_at_unixms = ? WHERE login = ? AND id = ?`,
				rank, nowMs, login, id); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE portfolios SET updated_at_unixms = ? WHERE login = ?`, nowMs, login); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.logger().Debug("project moved",
			zap.String("login", login),
			zap.String("id", projectID),
			zap.Int("insertAt", plan.InsertIndex),
			zap.Int("rankWrites", len(plan.RankByID)),
			zap.Bool("rebalanced", plan.Rebalanced))
		return nil
	})
	return plan, err
}
