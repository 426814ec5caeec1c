// Package moderation censors words in public broadcasts.
package moderation

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks every occurrence of a censored word, also when it is
// spelled with leet substitutions or split by spaces and punctuation.
type Moderator struct {
	log          *slog.Logger
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// folded is a searchable version of a text. at[i] is the index in the
// original runes of runes[i].
type folded struct {
	runes []rune
	at    []int
}

func NewModerator(log *slog.Logger, words []string, censoredChar rune) (*Moderator, error) {
	patterns := lo.FilterMap(words, func(w string, _ int) ([]rune, bool) {
		p := fold(w).runes
		return p, len(p) > 0
	})
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no censored word left after normalization")
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("building matcher: %w", err)
	}
	log.Info("Moderation enabled", "words", len(patterns))
	return &Moderator{log: log, matcher: m, censoredChar: censoredChar}, nil
}

// ParseWords splits a comma separated list.
func ParseWords(csv string) []string {
	return lo.Compact(lo.Map(strings.Split(csv, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	}))
}

// Censor returns text with the characters of each match replaced, and
// whether anything was replaced. Spacing and case of the rest are kept.
func (m *Moderator) Censor(text string) (string, bool) {
	f := fold(text)
	if len(f.runes) == 0 {
		return text, false
	}
	hits := m.matcher.MultiPatternSearch(f.runes, false)
	if len(hits) == 0 {
		return text, false
	}

	out := []rune(text)
	for _, hit := range hits {
		start, end := hit.Pos, hit.Pos+len(hit.Word)
		if start < 0 || end > len(f.at) {
			continue
		}
		for i := f.at[start]; i <= f.at[end-1]; i++ {
			out[i] = m.censoredChar
		}
	}
	m.log.Debug("Broadcast censored", "matches", len(hits))
	return string(out), true
}

func fold(text string) folded {
	runes := []rune(text)
	f := folded{runes: make([]rune, 0, len(runes)), at: make([]int, 0, len(runes))}
	for i, r := range runes {
		r = unleet(r)
		if isNoise(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.at = append(f.at, i)
	}
	return f
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
