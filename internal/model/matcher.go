package model

import "strings"

// MatchOperator is one of the five group-matcher operators named in
// spec.md §6.
type MatchOperator string

const (
	MatchEquality   MatchOperator = "Equality"
	MatchStartsWith MatchOperator = "StartsWith"
	MatchEndsWith   MatchOperator = "EndsWith"
	MatchAnything   MatchOperator = "Anything"
	MatchContains   MatchOperator = "Contains"
)

// GroupMatcher selects job or trigger groups by name. Equality, StartsWith,
// EndsWith and Anything are executed database-side via a where-clause
// predicate; Contains has no index-friendly predicate and falls back to a
// client-side stream filter (spec.md §6, §9 Open Question ii).
type GroupMatcher struct {
	Operator MatchOperator
	Value    string
}

// GroupEquals matches groups exactly equal to value.
func GroupEquals(value string) GroupMatcher { return GroupMatcher{Operator: MatchEquality, Value: value} }

// GroupStartsWith matches groups with the given prefix.
func GroupStartsWith(value string) GroupMatcher {
	return GroupMatcher{Operator: MatchStartsWith, Value: value}
}

// GroupEndsWith matches groups with the given suffix.
func GroupEndsWith(value string) GroupMatcher {
	return GroupMatcher{Operator: MatchEndsWith, Value: value}
}

// GroupContains matches groups containing value anywhere.
func GroupContains(value string) GroupMatcher {
	return GroupMatcher{Operator: MatchContains, Value: value}
}

// GroupAnything matches every group.
func GroupAnything() GroupMatcher { return GroupMatcher{Operator: MatchAnything} }

// Matches evaluates the matcher against a candidate group name. Used for
// the client-side Contains fallback and for unit tests of the predicate
// logic shared with the database-side query builder.
func (m GroupMatcher) Matches(group string) bool {
	switch m.Operator {
	case MatchEquality:
		return group == m.Value
	case MatchStartsWith:
		return strings.HasPrefix(group, m.Value)
	case MatchEndsWith:
		return strings.HasSuffix(group, m.Value)
	case MatchContains:
		return strings.Contains(group, m.Value)
	case MatchAnything:
		return true
	default:
		return false
	}
}

// IndexFriendly reports whether the operator can be pushed down to a
// database where-clause. Only Contains cannot.
func (m GroupMatcher) IndexFriendly() bool {
	return m.Operator != MatchContains
}
