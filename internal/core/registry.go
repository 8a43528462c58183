package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Format is the explicit tag of a recognized input file category.
type Format string

const (
	FormatTitleBasics     Format = "title.basics"
	FormatNameBasics      Format = "name.basics"
	FormatTitleAkas       Format = "title.akas"
	FormatTitlePrincipals Format = "title.principals"
)

// FormatInfo describes a registered format.
type FormatInfo struct {
	Format  Format     `json:"format"`
	Kind    EntityKind `json:"kind"`
	Label   string     `json:"label"`
	Rank    int        `json:"rank"` // load order: referenced kinds first
	Columns []string   `json:"columns"`
}

type formatDefinition struct {
	Info      FormatInfo
	newParser func(env *parserEnv) recordParser
}

var (
	registry   = make(map[Format]formatDefinition)
	registryMu sync.RWMutex
)

// formatPatterns is matched in order against file names at the boundary.
var formatPatterns = []struct {
	pattern string
	format  Format
}{
	{"title.basics", FormatTitleBasics},
	{"name.basics", FormatNameBasics},
	{"title.akas", FormatTitleAkas},
	{"title.principals", FormatTitlePrincipals},
}

// register adds a format definition. Panics if the format is already registered.
func register(def formatDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Format]; exists {
		panic(fmt.Sprintf("format already registered: %s", def.Info.Format))
	}
	registry[def.Info.Format] = def
}

func lookupFormat(f Format) (formatDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[f]
	return def, ok
}

// Formats returns all registered formats in load order.
func Formats() []FormatInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormatInfo, 0, len(registry))
	for _, def := range registry {
		result = append(result, def.Info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Rank < result[j].Rank
	})
	return result
}

// ParseFormat accepts an explicit format tag such as "title.akas".
func ParseFormat(tag string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(tag)))
	if _, ok := lookupFormat(f); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnrecognizedFormat, tag)
	}
	return f, nil
}

// DetectFormat matches a file name against the known patterns, in order.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	for _, p := range formatPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.format, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedFormat, name)
}

// Route resolves a caller-declared category or a file name to a format.
// An explicit tag wins; otherwise the name is pattern matched.
func Route(categoryOrName string) (Format, error) {
	if f, err := ParseFormat(categoryOrName); err == nil {
		return f, nil
	}
	return DetectFormat(categoryOrName)
}

// FormatRank returns the load-order rank of f, or -1 when unknown.
func FormatRank(f Format) int {
	def, ok := lookupFormat(f)
	if !ok {
		return -1
	}
	return def.Info.Rank
}
