package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

var titleFields = []string{
	"id", "type", "name", SkipField, "is_adult",
	"start_year", "end_year", "runtime_minutes", "genres",
}

func init() {
	register(formatDefinition{
		Info: FormatInfo{
			Format:  FormatTitleBasics,
			Kind:    KindTitle,
			Label:   "Titles",
			Rank:    0,
			Columns: titleFields,
		},
		newParser: func(env *parserEnv) recordParser { return &TitleParser{env: env} },
	})
}

// TitleParser stores title.basics rows. The original title column is ignored.
type TitleParser struct {
	env *parserEnv
}

func (p *TitleParser) Kind() EntityKind { return KindTitle }

func (p *TitleParser) Fields() []string { return titleFields }

func (p *TitleParser) ParseRow(ctx context.Context, rec Record) (rowResult, error) {
	raw, _ := rec.String("id")
	id, err := NormalizeTitleID(raw)
	if err != nil {
		return rowResult{}, err
	}
	res := rowResult{key: TitleKey(id)}
	if id == 0 {
		return res, fmt.Errorf("%w: title id is absent", ErrMalformedIdentifier)
	}

	dup, err := p.env.dedup.Exists(ctx, res.key)
	if err != nil {
		return res, err
	}
	if dup {
		res.outcome = outcomeDuplicate
		return res, nil
	}

	title := Title{ID: id}
	if title.Name, err = RequireName("name", rec.Text("name")); err != nil {
		return res, err
	}
	if title.IsAdult, err = ParseFlag(rec.Text("is_adult"), false); err != nil {
		return res, err
	}
	if title.StartYear, err = ToYear(rec.Text("start_year")); err != nil {
		return res, err
	}
	if title.EndYear, err = ToYear(rec.Text("end_year")); err != nil {
		return res, err
	}
	if title.RuntimeMinutes, err = ToPgInt4(rec.Text("runtime_minutes")); err != nil {
		return res, err
	}

	// The type label is created on demand, like genres.
	if label, ok := rec.String("type"); ok && label != "" {
		typeID, err := p.env.lookups.ResolveOne(ctx, LookupTitleType, label)
		if err != nil {
			return res, err
		}
		title.TypeID = pgtype.Int8{Int64: typeID, Valid: true}
	}

	genres, err := p.env.lookups.Resolve(ctx, LookupGenre, rec.Text("genres"))
	if err != nil {
		return res, err
	}

	if _, err := p.env.store.CreateTitle(ctx, title); err != nil {
		return res, fmt.Errorf("create title: %w", err)
	}
	if err := p.env.attach(ctx, AssocTitleGenres, int64(id), genres); err != nil {
		return res, err
	}

	res.outcome = outcomeCreated
	return res, nil
}
