package store

import (
	"strings"

	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

// MatchKind selects how a NameMatch compares names.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchGlob
	MatchAnyOf
)

// NameMatch describes a case-insensitive lookup of projects or tags by name.
type NameMatch struct {
	Kind   MatchKind
	Values []string
}

// Exact matches a single name.
func Exact(name string) NameMatch {
	return NameMatch{Kind: MatchExact, Values: []string{name}}
}

// Glob matches a "*"/"?" wildcard pattern.
func Glob(pattern string) NameMatch {
	return NameMatch{Kind: MatchGlob, Values: []string{pattern}}
}

// AnyOf matches any of the given names.
func AnyOf(names ...string) NameMatch {
	return NameMatch{Kind: MatchAnyOf, Values: names}
}

// GlobToLike translates a glob into a LIKE pattern for use with ESCAPE '\'.
// Literal "\", "%" and "_" are escaped before "*" and "?" become "%" and "_".
func GlobToLike(pattern string) string {
	var sb strings.Builder
	sb.Grow(len(pattern) + 4)
	for _, r := range pattern {
		switch r {
		case '\\', '%', '_':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '*':
			sb.WriteByte('%')
		case '?':
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// LikeEscape is the ESCAPE clause that pairs with GlobToLike.
const LikeEscape = `ESCAPE '\'`

// clause renders the predicate on column. ok is false when the match can
// never succeed (no values).
func (m NameMatch) clause(column string) (cond string, args []any, ok bool) {
	if len(m.Values) == 0 {
		return "", nil, false
	}
	switch m.Kind {
	case MatchGlob:
		return "LOWER(" + column + ") LIKE LOWER(?) " + LikeEscape, []any{GlobToLike(m.Values[0])}, true
	case MatchAnyOf:
		// LOWER on both sides keeps folding consistent with the database.
		ph, inArgs := sqlutil.InClauseArgs(m.Values)
		ph = strings.ReplaceAll(ph, "?", "LOWER(?)")
		return "LOWER(" + column + ") IN (" + ph + ")", inArgs, true
	default:
		return "LOWER(" + column + ") = LOWER(?)", []any{m.Values[0]}, true
	}
}
