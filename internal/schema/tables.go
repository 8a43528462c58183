// Package schema describes the relational layout shared by the SQL stores:
// which table holds each lookup kind and association, and the bootstrap DDL
// for each supported dialect.
package schema

import (
	"fmt"

	"github.com/JonMunkholm/catalog/internal/core"
)

// Link describes the join table behind an association.
type Link struct {
	Table        string
	OwnerColumn  string
	TargetColumn string
}

var lookupTables = map[core.LookupKind]string{
	core.LookupTitleType:  "title_types",
	core.LookupGenre:      "genres",
	core.LookupProfession: "professions",
}

var linkTables = map[core.Association]Link{
	core.AssocTitleGenres:         {Table: "title_genres", OwnerColumn: "title_id", TargetColumn: "genre_id"},
	core.AssocTitleNameTypes:      {Table: "title_name_types", OwnerColumn: "title_name_id", TargetColumn: "title_type_id"},
	core.AssocTitleNameAttributes: {Table: "title_name_attributes", OwnerColumn: "title_name_id", TargetColumn: "title_type_id"},
	core.AssocPersonProfessions:   {Table: "person_professions", OwnerColumn: "person_id", TargetColumn: "profession_id"},
	core.AssocPersonKnownFor:      {Table: "person_known_for", OwnerColumn: "person_id", TargetColumn: "title_id"},
}

// LookupTable returns the table holding labels of kind.
func LookupTable(kind core.LookupKind) (string, error) {
	table, ok := lookupTables[kind]
	if !ok {
		return "", fmt.Errorf("unknown lookup kind %q", kind)
	}
	return table, nil
}

// LinkTable returns the join table behind assoc.
func LinkTable(assoc core.Association) (Link, error) {
	link, ok := linkTables[assoc]
	if !ok {
		return Link{}, fmt.Errorf("unknown association %q", assoc)
	}
	return link, nil
}
