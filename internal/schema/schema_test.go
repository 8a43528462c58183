package schema

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/catalog/internal/core"
)

func TestLookupTable(t *testing.T) {
	tests := []struct {
		kind core.LookupKind
		want string
	}{
		{core.LookupTitleType, "title_types"},
		{core.LookupGenre, "genres"},
		{core.LookupProfession, "professions"},
	}
	for _, tt := range tests {
		got, err := LookupTable(tt.kind)
		if err != nil || got != tt.want {
			t.Errorf("LookupTable(%q) = %q, %v; want %q", tt.kind, got, err, tt.want)
		}
	}

	if _, err := LookupTable("studio"); err == nil {
		t.Error("LookupTable(studio) should fail")
	}
}

func TestLinkTableCoversEveryAssociation(t *testing.T) {
	assocs := []core.Association{
		core.AssocTitleGenres,
		core.AssocTitleNameTypes,
		core.AssocTitleNameAttributes,
		core.AssocPersonProfessions,
		core.AssocPersonKnownFor,
	}
	for _, a := range assocs {
		link, err := LinkTable(a)
		if err != nil {
			t.Errorf("LinkTable(%q) error: %v", a, err)
			continue
		}
		if link.Table != string(a) {
			t.Errorf("LinkTable(%q).Table = %q", a, link.Table)
		}
	}
}

func TestStatementsPerDialect(t *testing.T) {
	pg := Statements(Postgres)
	lite := Statements(SQLite)

	if len(pg) != len(lite) {
		t.Fatalf("dialects differ in statement count: %d vs %d", len(pg), len(lite))
	}
	for i := range pg {
		if strings.Contains(pg[i], "{{") || strings.Contains(lite[i], "{{") {
			t.Errorf("statement %d has an unexpanded placeholder", i)
		}
		if strings.Contains(lite[i], "BIGSERIAL") {
			t.Errorf("sqlite statement %d uses BIGSERIAL", i)
		}
	}
}
