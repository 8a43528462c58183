package core

import (
	"context"
	"fmt"
)

var principalFields = []string{
	"title", SkipField, "person", "category", "job", "characters",
}

func init() {
	register(formatDefinition{
		Info: FormatInfo{
			Format:  FormatTitlePrincipals,
			Kind:    KindPrincipal,
			Label:   "Principals",
			Rank:    3,
			Columns: principalFields,
		},
		newParser: func(env *parserEnv) recordParser { return &PrincipalParser{env: env} },
	})
}

// PrincipalParser stores title.principals rows linking existing titles and
// people. The ordering column is ignored.
type PrincipalParser struct {
	env *parserEnv
}

func (p *PrincipalParser) Kind() EntityKind { return KindPrincipal }

func (p *PrincipalParser) Fields() []string { return principalFields }

func (p *PrincipalParser) ParseRow(ctx context.Context, rec Record) (rowResult, error) {
	rawTitle, _ := rec.String("title")
	titleID, err := NormalizeTitleID(rawTitle)
	if err != nil {
		return rowResult{}, err
	}
	rawPerson, _ := rec.String("person")
	personID, err := NormalizePersonID(rawPerson)
	if err != nil {
		return rowResult{key: PrincipalKey(titleID, 0, "")}, err
	}

	category, err := RequireName("category", rec.Text("category"))
	if err != nil {
		return rowResult{key: PrincipalKey(titleID, personID, "")}, err
	}
	res := rowResult{key: PrincipalKey(titleID, personID, category)}

	switch {
	case titleID == 0:
		return missingRef(res, KindTitle, 0), nil
	case personID == 0:
		return missingRef(res, KindPerson, 0), nil
	}

	dup, err := p.env.dedup.Exists(ctx, res.key)
	if err != nil {
		return res, err
	}
	if dup {
		res.outcome = outcomeDuplicate
		return res, nil
	}

	ok, err := p.env.titleExists(ctx, titleID)
	if err != nil {
		return res, err
	}
	if !ok {
		return missingRef(res, KindTitle, titleID), nil
	}
	if ok, err = p.env.personExists(ctx, personID); err != nil {
		return res, err
	}
	if !ok {
		return missingRef(res, KindPerson, personID), nil
	}

	pr := Principal{TitleID: titleID, PersonID: personID, Category: category}
	if pr.Job, err = OptionalName("job", rec.Text("job")); err != nil {
		return res, err
	}
	// characters is unbounded text in the store
	if chars, ok := rec.String("characters"); ok && chars != "" {
		pr.Characters = rec.Text("characters")
	}

	if _, err := p.env.store.CreatePrincipal(ctx, pr); err != nil {
		return res, fmt.Errorf("create principal: %w", err)
	}

	res.outcome = outcomeCreated
	return res, nil
}
