package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// TagSet is a set of certification, skill or language tags. It marshals as a
// sorted JSON array so persisted and returned records are stable.
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// Add ignores blank tags.
func (s TagSet) Add(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	s[tag] = struct{}{}
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAny reports whether at least one of tags is present.
func (s TagSet) HasAny(tags ...string) bool {
	for _, t := range tags {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// HasAll reports whether every tag is present. An empty list is satisfied.
func (s TagSet) HasAll(tags ...string) bool {
	for _, t := range tags {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

func (s TagSet) Len() int { return len(s) }

func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}
