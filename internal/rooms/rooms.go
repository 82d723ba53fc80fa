// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

// Package rooms is the single source of room names for the relay.
//
// Every join, leave and broadcast call site builds its room name through New,
// so a group and an event sharing the literal id "42" can never collide:
//
//	rooms.New(rooms.CategoryGroup, "42") // "group_42"
//	rooms.New(rooms.CategoryEvent, "42") // "event_42"
//
// Names are "<category>_<id>". Category tags never contain the separator, so
// splitting on the first "_" recovers the pair and the mapping is injective.
package rooms

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Separator joins the category tag and the entity id.
const Separator = "_"

// MaxIDLength bounds entity identifiers accepted from clients and producers.
const MaxIDLength = 128

var (
	// ErrUnknownCategory is returned for a category tag outside the fixed set.
	ErrUnknownCategory = errors.New("unknown room category")

	// ErrEmptyID is returned when the entity identifier is empty or blank.
	ErrEmptyID = errors.New("empty room id")

	// ErrInvalidID is returned for identifiers that are too long or not valid UTF-8.
	ErrInvalidID = errors.New("invalid room id")

	// ErrMalformedName is returned by Parse for strings that are not canonical room names.
	ErrMalformedName = errors.New("malformed room name")
)

// Category is the entity kind a room is scoped to.
type Category string

// Room categories.
const (
	CategoryUser          Category = "user"
	CategoryEvent         Category = "event"
	CategoryCampaign      Category = "campaign"
	CategoryGroup         Category = "group"
	CategoryMentorship    Category = "mentorship"
	CategoryInterestGroup Category = "interestGroup"
	CategoryForum         Category = "forum"
)

var categories = map[Category]struct{}{
	CategoryUser:          {},
	CategoryEvent:         {},
	CategoryCampaign:      {},
	CategoryGroup:         {},
	CategoryMentorship:    {},
	CategoryInterestGroup: {},
	CategoryForum:         {},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// Categories returns the known categories in lexical order.
func Categories() []Category {
	out := make([]Category, 0, len(categories))
	for c := range categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name is a canonical room name.
type Name string

// String implements fmt.Stringer.
func (n Name) String() string { return string(n) }

// New builds the canonical room name for (category, id).
// The id is used verbatim; surrounding whitespace is not trimmed so that two
// distinct ids always map to two distinct names.
func New(category Category, id string) (Name, error) {
	if !category.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if err := validateID(id); err != nil {
		return "", err
	}
	return Name(string(category) + Separator + id), nil
}

// MustNew is New for compile-time constant inputs. It panics on error.
func MustNew(category Category, id string) Name {
	n, err := New(category, id)
	if err != nil {
		panic(err)
	}
	return n
}

// Parse splits a room name back into its category and id.
// Only names New would have produced are accepted.
func Parse(name string) (Category, string, error) {
	tag, id, ok := strings.Cut(name, Separator)
	if !ok {
		return "", "", fmt.Errorf("%w: missing separator in %q", ErrMalformedName, name)
	}
	category := Category(tag)
	if !category.Valid() {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownCategory, tag)
	}
	if err := validateID(id); err != nil {
		return "", "", err
	}
	return category, id, nil
}

// Category returns the category tag of n, or "" if n is not canonical.
func (n Name) Category() Category {
	c, _, err := Parse(string(n))
	if err != nil {
		return ""
	}
	return c
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyID
	}
	if len(id) > MaxIDLength || !utf8.ValidString(id) {
		return fmt.Errorf("%w: length %d", ErrInvalidID, len(id))
	}
	return nil
}

// NumericID converts a JSON number identifier to its room id text.
// Only integer literals are accepted, and they are canonicalized, so an
// entity sent as 7 or -0 always maps to the same room as "7" or "0".
// Fractions and exponents are rejected with ErrInvalidID.
func NumericID(literal string) (string, error) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return "", ErrEmptyID
	}
	if strings.ContainsAny(literal, ".eE") {
		return "", fmt.Errorf("%w: %s is not an integer", ErrInvalidID, literal)
	}
	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidID, literal)
	}
	return strconv.FormatInt(n, 10), nil
}
