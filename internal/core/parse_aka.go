package core

import (
	"context"
	"fmt"
)

var akaFields = []string{
	"title", SkipField, "name", "region", "language",
	"types", "attributes", "is_original_title",
}

func init() {
	register(formatDefinition{
		Info: FormatInfo{
			Format:  FormatTitleAkas,
			Kind:    KindTitleName,
			Label:   "Alternate titles",
			Rank:    2,
			Columns: akaFields,
		},
		newParser: func(env *parserEnv) recordParser { return &AkaParser{env: env} },
	})
}

// AkaParser stores title.akas rows against titles that already exist. An
// empty region is stored as NULL and deduplicates against other NULLs.
type AkaParser struct {
	env *parserEnv
}

func (p *AkaParser) Kind() EntityKind { return KindTitleName }

func (p *AkaParser) Fields() []string { return akaFields }

func (p *AkaParser) ParseRow(ctx context.Context, rec Record) (rowResult, error) {
	raw, _ := rec.String("title")
	titleID, err := NormalizeTitleID(raw)
	if err != nil {
		return rowResult{}, err
	}

	region, err := OptionalName("region", rec.Text("region"))
	if err != nil {
		return rowResult{key: TitleNameKey(titleID, rec.Text("region"))}, err
	}
	res := rowResult{key: TitleNameKey(titleID, region)}
	if titleID == 0 {
		return missingRef(res, KindTitle, 0), nil
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

	tn := TitleName{TitleID: titleID, Region: region}
	if tn.Name, err = RequireName("name", rec.Text("name")); err != nil {
		return res, err
	}
	if tn.Language, err = OptionalName("language", rec.Text("language")); err != nil {
		return res, err
	}
	if tn.IsOriginalTitle, err = ParseFlag(rec.Text("is_original_title"), true); err != nil {
		return res, err
	}

	types, err := p.env.lookups.Resolve(ctx, LookupTitleType, rec.Text("types"))
	if err != nil {
		return res, err
	}
	attributes, err := p.env.lookups.Resolve(ctx, LookupTitleType, rec.Text("attributes"))
	if err != nil {
		return res, err
	}

	tnID, err := p.env.store.CreateTitleName(ctx, tn)
	if err != nil {
		return res, fmt.Errorf("create title name: %w", err)
	}
	if err := p.env.attach(ctx, AssocTitleNameTypes, tnID, types); err != nil {
		return res, err
	}
	if err := p.env.attach(ctx, AssocTitleNameAttributes, tnID, attributes); err != nil {
		return res, err
	}

	res.outcome = outcomeCreated
	return res, nil
}

func missingRef(res rowResult, kind EntityKind, id uint64) rowResult {
	res.outcome = outcomeMissingReference
	res.missing = string(kind)
	res.ref = id
	return res
}
