// Package match resolves a product name to an inventory product through
// user-maintained single-word tags.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// minTagLength is the shortest word SuggestTags will propose.
const minTagLength = 3

// ErrInvalidTag is returned by AddTag for a word or product id that cannot
// form a tag.
var ErrInvalidTag = errors.New("invalid tag")

// TagStore is the tag registry. Implemented by *store.Store.
type TagStore interface {
	AddTag(ctx context.Context, word string, productID int64) (int64, error)
	MatchAnyTag(ctx context.Context, words []string) (productID int64, ok bool, err error)
	TagExists(ctx context.Context, word string) (bool, error)
}

// Matcher matches names against the tag registry.
type Matcher struct {
	tags TagStore
}

// New creates a Matcher over tags.
func New(tags TagStore) *Matcher {
	return &Matcher{tags: tags}
}

// Words splits name on whitespace and NFC-normalizes each word.
// Tags and scanned names go through the same normalization so that
// composed and decomposed spellings compare equal.
func Words(name string) []string {
	fields := strings.Fields(name)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, norm.NFC.String(f))
	}
	return words
}

// MatchProductByName returns the product of the first tag, in registration
// order, that equals any word of name. Matching is exact and case-sensitive.
// The result is a suggestion for a human to confirm, never a resolution.
func (m *Matcher) MatchProductByName(ctx context.Context, name string) (int64, bool, error) {
	id, ok, err := m.tags.MatchAnyTag(ctx, Words(name))
	if err != nil {
		return 0, false, fmt.Errorf("match product by name: %w", err)
	}
	return id, ok, nil
}

// AddTag registers word as a tag for productID. The word must be a single
// whitespace-free token.
func (m *Matcher) AddTag(ctx context.Context, word string, productID int64) (int64, error) {
	words := Words(word)
	if len(words) != 1 {
		return 0, fmt.Errorf("add tag: %q must be exactly one word: %w", word, ErrInvalidTag)
	}
	if productID <= 0 {
		return 0, fmt.Errorf("add tag: product id %d: %w", productID, ErrInvalidTag)
	}
	return m.tags.AddTag(ctx, words[0], productID)
}

// SuggestTags proposes words from name that could become new tags: words of at
// least three characters that are not tags yet. Order follows name and each
// word appears once.
func (m *Matcher) SuggestTags(ctx context.Context, name string) ([]string, error) {
	seen := make(map[string]bool)
	suggestions := []string{}
	for _, word := range Words(name) {
		if seen[word] || utf8.RuneCountInString(word) < minTagLength {
			continue
		}
		seen[word] = true

		exists, err := m.tags.TagExists(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("suggest tags: %w", err)
		}
		if !exists {
			suggestions = append(suggestions, word)
		}
	}
	return suggestions, nil
}
