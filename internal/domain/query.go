package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// Tag is a normalized dietary or allergen label, e.g. "vegan" or "gluten-free".
type Tag string

// NormalizeTag canonicalizes a raw label: lowercase, trimmed, with internal
// whitespace and underscores collapsed to single hyphens. "Gluten Free",
// "gluten_free" and "GLUTEN-FREE" all normalize to "gluten-free".
func NormalizeTag(raw string) Tag {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), "-")
	return Tag(s)
}

// NormalizeStoreID canonicalizes a store identifier the same way tags are
// canonicalized, so "Whole Foods" and "whole_foods" name the same store.
func NormalizeStoreID(raw string) string {
	return string(NormalizeTag(raw))
}

// TagSet is an unordered collection of normalized tags.
type TagSet map[Tag]struct{}

// NewTagSet builds a TagSet from raw labels, normalizing each and dropping
// empties.
func NewTagSet(raw ...string) TagSet {
	set := make(TagSet, len(raw))
	for _, r := range raw {
		if t := NormalizeTag(r); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the set holds the given tag.
func (s TagSet) Contains(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Empty reports whether the set has no tags.
func (s TagSet) Empty() bool {
	return len(s) == 0
}

// Merge returns a new set holding the union of both sets. Neither input is
// modified.
func (s TagSet) Merge(other TagSet) TagSet {
	merged := make(TagSet, len(s)+len(other))
	for t := range s {
		merged[t] = struct{}{}
	}
	for t := range other {
		merged[t] = struct{}{}
	}
	return merged
}

// Sorted returns the tags in ascending order for deterministic output.
func (s TagSet) Sorted() []Tag {
	tags := make([]Tag, 0, len(s))
	for t := range s {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// String renders the set as a comma-joined sorted list, usable as a stable
// cache key fragment.
func (s TagSet) String() string {
	tags := s.Sorted()
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the set as a sorted JSON array so repeated runs produce
// byte-identical output.
func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of labels, normalizing each.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewTagSet(raw...)
	return nil
}

// Query is a single item lookup: the item being priced plus the dietary
// constraints it must satisfy. Treat a Query as immutable once issued; the
// same Query must always produce the same fan-out.
type Query struct {
	Item        string `json:"item"`
	Constraints TagSet `json:"constraints"`
}

// NewQuery builds a Query with trimmed item text and normalized constraints.
func NewQuery(item string, constraints ...string) Query {
	return Query{
		Item:        strings.TrimSpace(item),
		Constraints: NewTagSet(constraints...),
	}
}

// CacheKey returns a stable key identifying this query's aggregation result.
func (q Query) CacheKey() string {
	return "quote:" + strings.ToLower(q.Item) + ":" + q.Constraints.String()
}

// ShoppingList is an ordered list of item names sharing one constraint set.
// Item order is preserved through processing.
type ShoppingList struct {
	Items       []string `json:"items"`
	Constraints TagSet   `json:"constraints"`
}

// Queries expands the list into one Query per item, all carrying the shared
// constraint set.
func (l ShoppingList) Queries() []Query {
	queries := make([]Query, len(l.Items))
	for i, item := range l.Items {
		queries[i] = Query{Item: strings.TrimSpace(item), Constraints: l.Constraints}
	}
	return queries
}
