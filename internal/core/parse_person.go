package core

import (
	"context"
	"fmt"
)

var personFields = []string{
	"id", "name", "birth_year", "death_year", "professions", "known_for_titles",
}

func init() {
	register(formatDefinition{
		Info: FormatInfo{
			Format:  FormatNameBasics,
			Kind:    KindPerson,
			Label:   "People",
			Rank:    1,
			Columns: personFields,
		},
		newParser: func(env *parserEnv) recordParser { return &PersonParser{env: env} },
	})
}

// PersonParser stores name.basics rows. Known-for titles that are not yet
// stored are dropped from the association; a malformed one fails the row.
type PersonParser struct {
	env *parserEnv
}

func (p *PersonParser) Kind() EntityKind { return KindPerson }

func (p *PersonParser) Fields() []string { return personFields }

func (p *PersonParser) ParseRow(ctx context.Context, rec Record) (rowResult, error) {
	raw, _ := rec.String("id")
	id, err := NormalizePersonID(raw)
	if err != nil {
		return rowResult{key: PersonKey(0)}, err
	}
	res := rowResult{key: PersonKey(id)}
	if id == 0 {
		return res, fmt.Errorf("%w: person id is absent", ErrMalformedIdentifier)
	}

	knownForIDs, err := knownForTitles(rec)
	if err != nil {
		return res, err
	}

	dup, err := p.env.dedup.Exists(ctx, res.key)
	if err != nil {
		return res, err
	}
	if dup {
		res.outcome = outcomeDuplicate
		return res, nil
	}

	person := Person{ID: id}
	if person.Name, err = RequireName("name", rec.Text("name")); err != nil {
		return res, err
	}
	if person.BirthYear, err = ToYear(rec.Text("birth_year")); err != nil {
		return res, err
	}
	if person.DeathYear, err = ToYear(rec.Text("death_year")); err != nil {
		return res, err
	}

	professions, err := p.env.lookups.Resolve(ctx, LookupProfession, rec.Text("professions"))
	if err != nil {
		return res, err
	}
	knownFor, err := p.existingTitles(ctx, id, knownForIDs)
	if err != nil {
		return res, err
	}

	if _, err := p.env.store.CreatePerson(ctx, person); err != nil {
		return res, fmt.Errorf("create person: %w", err)
	}
	if err := p.env.attach(ctx, AssocPersonProfessions, int64(id), professions); err != nil {
		return res, err
	}
	if err := p.env.attach(ctx, AssocPersonKnownFor, int64(id), knownFor); err != nil {
		return res, err
	}

	res.outcome = outcomeCreated
	return res, nil
}

// knownForTitles normalizes every known-for token, dropping absent and
// repeated ids.
func knownForTitles(rec Record) ([]uint64, error) {
	tokens := SplitList(rec.Text("known_for_titles"))
	if len(tokens) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(tokens))
	seen := make(map[uint64]struct{}, len(tokens))
	for _, tok := range tokens {
		titleID, err := NormalizeTitleID(tok)
		if err != nil {
			return nil, fmt.Errorf("known for: %w", err)
		}
		if titleID == 0 {
			continue
		}
		if _, dup := seen[titleID]; dup {
			continue
		}
		seen[titleID] = struct{}{}
		ids = append(ids, titleID)
	}
	return ids, nil
}

func (p *PersonParser) existingTitles(ctx context.Context, personID uint64, titleIDs []uint64) ([]int64, error) {
	out := make([]int64, 0, len(titleIDs))
	for _, titleID := range titleIDs {
		ok, err := p.env.titleExists(ctx, titleID)
		if err != nil {
			return nil, err
		}
		if !ok {
			p.env.logger.Debug("dropped unknown known-for title",
				"person_id", personID, "title_id", titleID)
			continue
		}
		out = append(out, int64(titleID))
	}
	return out, nil
}
