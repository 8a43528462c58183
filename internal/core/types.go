package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MaxNameLength is the longest name or label the store columns accept.
const MaxNameLength = 255

// MaxYearLength is the longest year string the store columns accept.
const MaxYearLength = 4

// EntityKind names a record kind produced by the pipeline.
type EntityKind string

const (
	KindTitle     EntityKind = "title"
	KindPerson    EntityKind = "person"
	KindTitleName EntityKind = "title_name"
	KindPrincipal EntityKind = "principal"
)

// LookupKind names a label-keyed lookup entity.
type LookupKind string

const (
	LookupTitleType  LookupKind = "title_type"
	LookupGenre      LookupKind = "genre"
	LookupProfession LookupKind = "profession"
)

// Association names a many-valued relation attached after its owner exists.
type Association string

const (
	AssocTitleGenres         Association = "title_genres"
	AssocTitleNameTypes      Association = "title_name_types"
	AssocTitleNameAttributes Association = "title_name_attributes"
	AssocPersonProfessions   Association = "person_professions"
	AssocPersonKnownFor      Association = "person_known_for"
)

// Lookup is a genre, title type or profession.
type Lookup struct {
	ID    int64
	Kind  LookupKind
	Label string
}

// Title holds the scalar columns of a title.basics row.
type Title struct {
	ID             uint64
	TypeID         pgtype.Int8
	Name           string
	IsAdult        bool
	StartYear      pgtype.Text
	EndYear        pgtype.Text
	RuntimeMinutes pgtype.Int4
}

// Person holds the scalar columns of a name.basics row.
type Person struct {
	ID        uint64
	Name      string
	BirthYear pgtype.Text
	DeathYear pgtype.Text
}

// TitleName is an alternate (aka) name of a title.
type TitleName struct {
	ID              int64
	TitleID         uint64
	Name            string
	Region          pgtype.Text
	Language        pgtype.Text
	IsOriginalTitle bool
}

// Principal links a person to a title they contributed to.
type Principal struct {
	ID         int64
	TitleID    uint64
	PersonID   uint64
	Category   string
	Job        pgtype.Text
	Characters pgtype.Text
}

// NaturalKey identifies a record for deduplication, independent of any
// generated id. Which fields are meaningful depends on Kind:
//
//	title:      TitleID
//	person:     PersonID
//	title_name: TitleID, Region
//	principal:  TitleID, PersonID, Category
type NaturalKey struct {
	Kind     EntityKind
	TitleID  uint64
	PersonID uint64
	Region   pgtype.Text
	Category string
}

// TitleKey returns the natural key of a title.
func TitleKey(id uint64) NaturalKey {
	return NaturalKey{Kind: KindTitle, TitleID: id}
}

// PersonKey returns the natural key of a person.
func PersonKey(id uint64) NaturalKey {
	return NaturalKey{Kind: KindPerson, PersonID: id}
}

// TitleNameKey returns the natural key of an aka row.
func TitleNameKey(titleID uint64, region pgtype.Text) NaturalKey {
	return NaturalKey{Kind: KindTitleName, TitleID: titleID, Region: region}
}

// PrincipalKey returns the natural key of a principal row.
func PrincipalKey(titleID, personID uint64, category string) NaturalKey {
	return NaturalKey{Kind: KindPrincipal, TitleID: titleID, PersonID: personID, Category: category}
}

// LogAttrs renders the key as slog key/value pairs.
func (k NaturalKey) LogAttrs() []any {
	switch k.Kind {
	case KindTitle:
		return []any{"kind", k.Kind, "title_id", k.TitleID}
	case KindPerson:
		return []any{"kind", k.Kind, "person_id", k.PersonID}
	case KindTitleName:
		return []any{"kind", k.Kind, "title_id", k.TitleID, "region", textOrNull(k.Region)}
	case KindPrincipal:
		return []any{"kind", k.Kind, "title_id", k.TitleID, "person_id", k.PersonID, "category", k.Category}
	default:
		return []any{"kind", k.Kind}
	}
}

func textOrNull(t pgtype.Text) string {
	if !t.Valid {
		return NullSentinel
	}
	return t.String
}

// ImportPhase indicates the current stage of an import run.
type ImportPhase string

const (
	PhaseRunning  ImportPhase = "running"
	PhaseComplete ImportPhase = "complete"
	PhaseFailed   ImportPhase = "failed"
)

// Stats counts row outcomes of one run. Row-level errors are counted and
// logged, never collected.
type Stats struct {
	Rows       int `json:"rows"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// RunStatus is a snapshot of an import run tracked by the Service.
type RunStatus struct {
	RunID      string      `json:"run_id"`
	Format     Format      `json:"format"`
	FileName   string      `json:"file_name"`
	Phase      ImportPhase `json:"phase"`
	Stats      Stats       `json:"stats"`
	BytesRead  int64       `json:"bytes_read"`
	BytesTotal int64       `json:"bytes_total"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// Percent returns byte-based progress (0-100), or 0 when the size is unknown.
func (s RunStatus) Percent() int {
	if s.BytesTotal <= 0 {
		return 0
	}
	return int(s.BytesRead * 100 / s.BytesTotal)
}

// ProgressCallback is called periodically while a run processes rows.
type ProgressCallback func(Stats)
