// Package postgres is a core.Store on PostgreSQL using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/schema"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store implements core.Store. Each write is its own statement and commits
// immediately.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

var _ core.Store = (*Store)(nil)

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, cfg PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// New wraps an existing connection or transaction. Close is a no-op on it.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// InitSchema creates any missing tables and indexes in one transaction.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.pool == nil {
		return runStatements(ctx, s.db)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return runStatements(ctx, tx)
	})
}

func runStatements(ctx context.Context, db DBTX) error {
	for _, stmt := range schema.Statements(schema.Postgres) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Ping checks the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key core.NaturalKey) (bool, error) {
	var (
		query string
		args  []any
	)
	switch key.Kind {
	case core.KindTitle:
		query, args = `SELECT EXISTS (SELECT 1 FROM titles WHERE id = $1)`, []any{int64(key.TitleID)}
	case core.KindPerson:
		query, args = `SELECT EXISTS (SELECT 1 FROM people WHERE id = $1)`, []any{int64(key.PersonID)}
	case core.KindTitleName:
		query = `SELECT EXISTS (SELECT 1 FROM title_names WHERE title_id = $1 AND COALESCE(region, '') = COALESCE($2::text, ''))`
		args = []any{int64(key.TitleID), key.Region}
	case core.KindPrincipal:
		query = `SELECT EXISTS (SELECT 1 FROM principals WHERE title_id = $1 AND person_id = $2 AND category = $3)`
		args = []any{int64(key.TitleID), int64(key.PersonID), key.Category}
	default:
		return false, fmt.Errorf("unknown record kind %q", key.Kind)
	}

	var exists bool
	if err := s.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s: %w", key.Kind, err)
	}
	return exists, nil
}

func (s *Store) TitleByID(ctx context.Context, id uint64) (*core.Title, error) {
	t := core.Title{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT type_id, name, is_adult, start_year, end_year, runtime_minutes FROM titles WHERE id = $1`,
		int64(id),
	).Scan(&t.TypeID, &t.Name, &t.IsAdult, &t.StartYear, &t.EndYear, &t.RuntimeMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("title %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get title %d: %w", id, err)
	}
	return &t, nil
}

func (s *Store) PersonByID(ctx context.Context, id uint64) (*core.Person, error) {
	p := core.Person{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT name, birth_year, death_year FROM people WHERE id = $1`,
		int64(id),
	).Scan(&p.Name, &p.BirthYear, &p.DeathYear)
	if errors.Is(err, pgx.ErrNoRows) {
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
	err = s.db.QueryRow(ctx, `SELECT id FROM `+table+` WHERE name = $1`, label).Scan(&l.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, label, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", kind, label, err)
	}
	return &l, nil
}

func (s *Store) CreateTitle(ctx context.Context, t core.Title) (uint64, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO titles (id, type_id, name, is_adult, start_year, end_year, runtime_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		int64(t.ID), t.TypeID, t.Name, t.IsAdult, t.StartYear, t.EndYear, t.RuntimeMinutes,
	)
	if err != nil {
		return 0, classify("insert title", err)
	}
	return t.ID, nil
}

func (s *Store) CreatePerson(ctx context.Context, p core.Person) (uint64, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO people (id, name, birth_year, death_year) VALUES ($1, $2, $3, $4)`,
		int64(p.ID), p.Name, p.BirthYear, p.DeathYear,
	)
	if err != nil {
		return 0, classify("insert person", err)
	}
	return p.ID, nil
}

func (s *Store) CreateTitleName(ctx context.Context, n core.TitleName) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO title_names (title_id, name, region, language, is_original_title)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		int64(n.TitleID), n.Name, n.Region, n.Language, n.IsOriginalTitle,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert title name", err)
	}
	return id, nil
}

func (s *Store) CreatePrincipal(ctx context.Context, p core.Principal) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO principals (title_id, person_id, category, job, characters)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		int64(p.TitleID), int64(p.PersonID), p.Category, p.Job, p.Characters,
	).Scan(&id)
	if err != nil {
		return 0, classify("insert principal", err)
	}
	return id, nil
}

func (s *Store) CreateLookup(ctx context.Context, kind core.LookupKind, label string) (int64, error) {
	table, err := schema.LookupTable(kind)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRow(ctx, `INSERT INTO `+table+` (name) VALUES ($1) RETURNING id`, label).Scan(&id)
	if err != nil {
		return 0, classify("insert "+string(kind), err)
	}
	return id, nil
}

func (s *Store) Attach(ctx context.Context, assoc core.Association, ownerID int64, targetIDs []int64) error {
	link, err := schema.LinkTable(assoc)
	if err != nil {
		return err
	}
	if len(targetIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s, %s) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		pgx.Identifier{link.Table}.Sanitize(),
		pgx.Identifier{link.OwnerColumn}.Sanitize(),
		pgx.Identifier{link.TargetColumn}.Sanitize(),
	)
	if _, err := s.db.Exec(ctx, query, ownerID, targetIDs); err != nil {
		return classify("attach "+string(assoc), err)
	}
	return nil
}

// Count returns the number of rows in table. table must be a schema table name.
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM ` + pgx.Identifier{table}.Sanitize()
	if err := s.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// integrityClass is the SQLSTATE class for constraint violations.
const integrityClass = "23"

// classify wraps constraint violations in core.ErrIntegrity.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == integrityClass {
		return fmt.Errorf("%s: %w: %s (%s)", op, core.ErrIntegrity, pgErr.Message, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}
