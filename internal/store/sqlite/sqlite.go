// Package sqlite is a core.Store on a local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/schema"
)

// Store implements core.Store with database/sql.
type Store struct {
	db *sql.DB
}

var _ core.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path. Foreign keys are
// enforced on every connection.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// InitSchema creates any missing tables and indexes.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schema.Statements(schema.SQLite) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Exists(ctx context.Context, key core.NaturalKey) (bool, error) {
	var (
		query string
		args  []any
	)
	switch key.Kind {
	case core.KindTitle:
		query, args = `SELECT EXISTS (SELECT 1 FROM titles WHERE id = ?)`, []any{int64(key.TitleID)}
	case core.KindPerson:
		query, args = `SELECT EXISTS (SELECT 1 FROM people WHERE id = ?)`, []any{int64(key.PersonID)}
	case core.KindTitleName:
		query = `SELECT EXISTS (SELECT 1 FROM title_names WHERE title_id = ? AND COALESCE(region, '') = COALESCE(?, ''))`
		args = []any{int64(key.TitleID), key.Region}
	case core.KindPrincipal:
		query = `SELECT EXISTS (SELECT 1 FROM principals WHERE title_id = ? AND person_id = ? AND category = ?)`
		args = []any{int64(key.TitleID), int64(key.PersonID), key.Category}
	default:
		return false, fmt.Errorf("unknown record kind %q", key.Kind)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", key.Kind, err)
	}
	return exists, nil
}

func (s *Store) TitleByID(ctx context.Context, id uint64) (*core.Title, error) {
	t := core.Title{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT type_id, name, is_adult, start_year, end_year, runtime_minutes FROM titles WHERE id = ?`,
		int64(id),
	).Scan(&t.TypeID, &t.Name, &t.IsAdult, &t.StartYear, &t.EndYear, &t.RuntimeMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("title %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get title %d: %w", id, err)
	}
	return &t, nil
}

func (s *Store) PersonByID(ctx context.Context, id uint64) (*core.Person, error) {
	p := core.Person{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, birth_year, death_year FROM people WHERE id = ?`,
		int64(id),
	).Scan(&p.Name, &p.BirthYear, &p.DeathYear)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get person %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) LookupByLabel(ctx context.Context, kind core.LookupKind, label string) (*core.Lookup, error) {
	table, err := schema.LookupTable(kind)
	if err != nil {
		return nil, err
	}

	l := core.Lookup{Kind: kind, Label: label}
	err = s.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ?`, label).Scan(&l.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, label, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", kind, label, err)
	}
	return &l, nil
}

func (s *Store) CreateTitle(ctx context.Context, t core.Title) (uint64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO titles (id, type_id, name, is_adult, start_year, end_year, runtime_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(t.ID), t.TypeID, t.Name, t.IsAdult, t.StartYear, t.EndYear, t.RuntimeMinutes,
	)
	if err != nil {
		return 0, classify("insert title", err)
	}
	return t.ID, nil
}

func (s *Store) CreatePerson(ctx context.Context, p core.Person) (uint64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO people (id, name, birth_year, death_year) VALUES (?, ?, ?, ?)`,
		int64(p.ID), p.Name, p.BirthYear, p.DeathYear,
	)
	if err != nil {
		return 0, classify("insert person", err)
	}
	return p.ID, nil
}

func (s *Store) CreateTitleName(ctx context.Context, n core.TitleName) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO title_names (title_id, name, region, language, is_original_title) VALUES (?, ?, ?, ?, ?)`,
		int64(n.TitleID), n.Name, n.Region, n.Language, n.IsOriginalTitle,
	)
	if err != nil {
		return 0, classify("insert title name", err)
	}
	return res.LastInsertId()
}

func (s *Store) CreatePrincipal(ctx context.Context, p core.Principal) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO principals (title_id, person_id, category, job, characters) VALUES (?, ?, ?, ?, ?)`,
		int64(p.TitleID), int64(p.PersonID), p.Category, p.Job, p.Characters,
	)
	if err != nil {
		return 0, classify("insert principal", err)
	}
	return res.LastInsertId()
}

func (s *Store) CreateLookup(ctx context.Context, kind core.LookupKind, label string) (int64, error) {
	table, err := schema.LookupTable(kind)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, label)
	if err != nil {
		return 0, classify("insert "+string(kind), err)
	}
	return res.LastInsertId()
}

func (s *Store) Attach(ctx context.Context, assoc core.Association, ownerID int64, targetIDs []int64) error {
	link, err := schema.LinkTable(assoc)
	if err != nil {
		return err
	}
	if len(targetIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attach: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s, %s) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		link.Table, link.OwnerColumn, link.TargetColumn,
	))
	if err != nil {
		return fmt.Errorf("prepare attach: %w", err)
	}
	defer stmt.Close()

	for _, target := range targetIDs {
		if _, err := stmt.ExecContext(ctx, ownerID, target); err != nil {
			return classify("attach "+string(assoc), err)
		}
	}
	return tx.Commit()
}

// Labels returns the labels of kind linked to owner through assoc, sorted.
func (s *Store) Labels(ctx context.Context, assoc core.Association, kind core.LookupKind, ownerID int64) ([]string, error) {
	link, err := schema.LinkTable(assoc)
	if err != nil {
		return nil, err
	}
	table, err := schema.LookupTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT l.name FROM %s j JOIN %s l ON l.id = j.%s WHERE j.%s = ? ORDER BY l.name`,
		link.Table, table, link.TargetColumn, link.OwnerColumn,
	), ownerID)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Count returns the number of rows in table. table must be a schema table name.
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// classify wraps constraint violations in core.ErrIntegrity.
func classify(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %v", op, core.ErrIntegrity, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
