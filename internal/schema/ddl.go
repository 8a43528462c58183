package schema

import "strings"

// Dialect selects the SQL flavour of the bootstrap statements.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// Both dialects accept the same DDL apart from the surrogate key type.
// {{serial}} is replaced per dialect.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS title_types (
		id {{serial}},
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id {{serial}},
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS professions (
		id {{serial}},
		name VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS titles (
		id BIGINT PRIMARY KEY,
		type_id BIGINT REFERENCES title_types (id),
		name VARCHAR(255) NOT NULL,
		is_adult BOOLEAN NOT NULL DEFAULT FALSE,
		start_year VARCHAR(4),
		end_year VARCHAR(4),
		runtime_minutes INTEGER CHECK (runtime_minutes >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS title_genres (
		title_id BIGINT NOT NULL REFERENCES titles (id),
		genre_id BIGINT NOT NULL REFERENCES genres (id),
		PRIMARY KEY (title_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS people (
		id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		birth_year VARCHAR(4),
		death_year VARCHAR(4)
	)`,
	`CREATE TABLE IF NOT EXISTS person_professions (
		person_id BIGINT NOT NULL REFERENCES people (id),
		profession_id BIGINT NOT NULL REFERENCES professions (id),
		PRIMARY KEY (person_id, profession_id)
	)`,
	`CREATE TABLE IF NOT EXISTS person_known_for (
		person_id BIGINT NOT NULL REFERENCES people (id),
		title_id BIGINT NOT NULL REFERENCES titles (id),
		PRIMARY KEY (person_id, title_id)
	)`,
	`CREATE TABLE IF NOT EXISTS title_names (
		id {{serial}},
		title_id BIGINT NOT NULL REFERENCES titles (id),
		name VARCHAR(255) NOT NULL,
		region VARCHAR(255),
		language VARCHAR(255),
		is_original_title BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	// An absent region is its own key value: two NULL regions collide.
	`CREATE UNIQUE INDEX IF NOT EXISTS title_names_title_region
		ON title_names (title_id, COALESCE(region, ''))`,
	`CREATE TABLE IF NOT EXISTS title_name_types (
		title_name_id BIGINT NOT NULL REFERENCES title_names (id),
		title_type_id BIGINT NOT NULL REFERENCES title_types (id),
		PRIMARY KEY (title_name_id, title_type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS title_name_attributes (
		title_name_id BIGINT NOT NULL REFERENCES title_names (id),
		title_type_id BIGINT NOT NULL REFERENCES title_types (id),
		PRIMARY KEY (title_name_id, title_type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS principals (
		id {{serial}},
		title_id BIGINT NOT NULL REFERENCES titles (id),
		person_id BIGINT NOT NULL REFERENCES people (id),
		category VARCHAR(255) NOT NULL,
		job VARCHAR(255),
		characters TEXT,
		UNIQUE (title_id, person_id, category)
	)`,
}

// Statements returns the idempotent bootstrap DDL for d, in dependency order.
func Statements(d Dialect) []string {
	serial := "BIGSERIAL PRIMARY KEY"
	if d == SQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	out := make([]string, len(statements))
	for i, s := range statements {
		out[i] = strings.ReplaceAll(s, "{{serial}}", serial)
	}
	return out
}
