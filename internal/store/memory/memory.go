// Package memory is an in-process core.Store. It enforces the same key and
// reference constraints as the SQL stores and is used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/catalog/internal/core"
)

type titleNameKey struct {
	titleID uint64
	region  pgtype.Text
}

type principalKey struct {
	titleID  uint64
	personID uint64
	category string
}

// Store holds every record in maps guarded by one mutex.
type Store struct {
	mu sync.RWMutex

	titles     map[uint64]core.Title
	people     map[uint64]core.Person
	titleNames map[int64]core.TitleName
	akaKeys    map[titleNameKey]int64
	principals map[int64]core.Principal
	prinKeys   map[principalKey]int64

	lookups map[core.LookupKind]map[string]int64
	labels  map[core.LookupKind]map[int64]string
	links   map[core.Association]map[int64]map[int64]struct{}
	nextID  int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		titles:     make(map[uint64]core.Title),
		people:     make(map[uint64]core.Person),
		titleNames: make(map[int64]core.TitleName),
		akaKeys:    make(map[titleNameKey]int64),
		principals: make(map[int64]core.Principal),
		prinKeys:   make(map[principalKey]int64),
		lookups:    make(map[core.LookupKind]map[string]int64),
		labels:     make(map[core.LookupKind]map[int64]string),
		links:      make(map[core.Association]map[int64]map[int64]struct{}),
	}
}

var _ core.Store = (*Store)(nil)

// InitSchema is a no-op; the maps are ready after New.
func (s *Store) InitSchema(context.Context) error { return nil }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) Exists(_ context.Context, key core.NaturalKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch key.Kind {
	case core.KindTitle:
		_, ok := s.titles[key.TitleID]
		return ok, nil
	case core.KindPerson:
		_, ok := s.people[key.PersonID]
		return ok, nil
	case core.KindTitleName:
		_, ok := s.akaKeys[akaKey(key.TitleID, key.Region)]
		return ok, nil
	case core.KindPrincipal:
		_, ok := s.prinKeys[principalKey{key.TitleID, key.PersonID, key.Category}]
		return ok, nil
	default:
		return false, fmt.Errorf("unknown record kind %q", key.Kind)
	}
}

func (s *Store) TitleByID(_ context.Context, id uint64) (*core.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.titles[id]
	if !ok {
		return nil, fmt.Errorf("title %d: %w", id, core.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) PersonByID(_ context.Context, id uint64) (*core.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, core.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) LookupByLabel(_ context.Context, kind core.LookupKind, label string) (*core.Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.lookups[kind][label]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, label, core.ErrNotFound)
	}
	return &core.Lookup{ID: id, Kind: kind, Label: label}, nil
}

func (s *Store) CreateTitle(_ context.Context, t core.Title) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[t.ID]; ok {
		return 0, fmt.Errorf("title %d: %w", t.ID, core.ErrIntegrity)
	}
	if t.TypeID.Valid {
		if _, ok := s.labels[core.LookupTitleType][t.TypeID.Int64]; !ok {
			return 0, fmt.Errorf("title type %d: %w", t.TypeID.Int64, core.ErrIntegrity)
		}
	}
	s.titles[t.ID] = t
	return t.ID, nil
}

func (s *Store) CreatePerson(_ context.Context, p core.Person) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[p.ID]; ok {
		return 0, fmt.Errorf("person %d: %w", p.ID, core.ErrIntegrity)
	}
	s.people[p.ID] = p
	return p.ID, nil
}

func (s *Store) CreateTitleName(_ context.Context, n core.TitleName) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[n.TitleID]; !ok {
		return 0, fmt.Errorf("title %d: %w", n.TitleID, core.ErrIntegrity)
	}
	k := akaKey(n.TitleID, n.Region)
	if _, ok := s.akaKeys[k]; ok {
		return 0, fmt.Errorf("title name (%d, %v): %w", n.TitleID, n.Region.String, core.ErrIntegrity)
	}

	s.nextID++
	n.ID = s.nextID
	s.titleNames[n.ID] = n
	s.akaKeys[k] = n.ID
	return n.ID, nil
}

func (s *Store) CreatePrincipal(_ context.Context, p core.Principal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[p.TitleID]; !ok {
		return 0, fmt.Errorf("title %d: %w", p.TitleID, core.ErrIntegrity)
	}
	if _, ok := s.people[p.PersonID]; !ok {
		return 0, fmt.Errorf("person %d: %w", p.PersonID, core.ErrIntegrity)
	}
	k := principalKey{p.TitleID, p.PersonID, p.Category}
	if _, ok := s.prinKeys[k]; ok {
		return 0, fmt.Errorf("principal (%d, %d, %s): %w", p.TitleID, p.PersonID, p.Category, core.ErrIntegrity)
	}

	s.nextID++
	p.ID = s.nextID
	s.principals[p.ID] = p
	s.prinKeys[k] = p.ID
	return p.ID, nil
}

func (s *Store) CreateLookup(_ context.Context, kind core.LookupKind, label string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookups[kind][label]; ok {
		return 0, fmt.Errorf("%s %q: %w", kind, label, core.ErrIntegrity)
	}
	if s.lookups[kind] == nil {
		s.lookups[kind] = make(map[string]int64)
		s.labels[kind] = make(map[int64]string)
	}

	s.nextID++
	s.lookups[kind][label] = s.nextID
	s.labels[kind][s.nextID] = label
	return s.nextID, nil
}

func (s *Store) Attach(_ context.Context, assoc core.Association, ownerID int64, targetIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ownerExists(assoc, ownerID) {
		return fmt.Errorf("%s owner %d: %w", assoc, ownerID, core.ErrIntegrity)
	}
	for _, id := range targetIDs {
		if !s.targetExists(assoc, id) {
			return fmt.Errorf("%s target %d: %w", assoc, id, core.ErrIntegrity)
		}
	}

	byOwner := s.links[assoc]
	if byOwner == nil {
		byOwner = make(map[int64]map[int64]struct{})
		s.links[assoc] = byOwner
	}
	set := byOwner[ownerID]
	if set == nil {
		set = make(map[int64]struct{})
		byOwner[ownerID] = set
	}
	for _, id := range targetIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (s *Store) ownerExists(assoc core.Association, id int64) bool {
	switch assoc {
	case core.AssocTitleGenres:
		_, ok := s.titles[uint64(id)]
		return ok
	case core.AssocTitleNameTypes, core.AssocTitleNameAttributes:
		_, ok := s.titleNames[id]
		return ok
	case core.AssocPersonProfessions, core.AssocPersonKnownFor:
		_, ok := s.people[uint64(id)]
		return ok
	}
	return false
}

func (s *Store) targetExists(assoc core.Association, id int64) bool {
	switch assoc {
	case core.AssocTitleGenres:
		_, ok := s.labels[core.LookupGenre][id]
		return ok
	case core.AssocTitleNameTypes, core.AssocTitleNameAttributes:
		_, ok := s.labels[core.LookupTitleType][id]
		return ok
	case core.AssocPersonProfessions:
		_, ok := s.labels[core.LookupProfession][id]
		return ok
	case core.AssocPersonKnownFor:
		_, ok := s.titles[uint64(id)]
		return ok
	}
	return false
}

// Linked returns the targets attached to owner, sorted.
func (s *Store) Linked(assoc core.Association, ownerID int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int64, 0, len(s.links[assoc][ownerID]))
	for id := range s.links[assoc][ownerID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Labels returns the labels of kind attached to owner, sorted.
func (s *Store) Labels(assoc core.Association, kind core.LookupKind, ownerID int64) []string {
	ids := s.Linked(assoc, ownerID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.labels[kind][id])
	}
	sort.Strings(out)
	return out
}

// Lookups returns every label of kind, sorted.
func (s *Store) Lookups(kind core.LookupKind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.lookups[kind]))
	for label := range s.lookups[kind] {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// TitleNames returns the stored akas of a title ordered by id.
func (s *Store) TitleNames(titleID uint64) []core.TitleName {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.TitleName
	for _, n := range s.titleNames {
		if n.TitleID == titleID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Principals returns every stored principal ordered by id.
func (s *Store) Principals() []core.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Principal, 0, len(s.principals))
	for _, p := range s.principals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Counts returns the number of stored rows per table.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		"titles":      len(s.titles),
		"people":      len(s.people),
		"title_names": len(s.titleNames),
		"principals":  len(s.principals),
		"title_types": len(s.lookups[core.LookupTitleType]),
		"genres":      len(s.lookups[core.LookupGenre]),
		"professions": len(s.lookups[core.LookupProfession]),
	}
}

// akaKey folds the NULL region into one map key; two NULL regions collide.
func akaKey(titleID uint64, region pgtype.Text) titleNameKey {
	if !region.Valid {
		return titleNameKey{titleID: titleID}
	}
	return titleNameKey{titleID: titleID, region: region}
}
