package moderation

import (
	"log/slog"
	"strings"
	"unicode"

	"secure-messenger/errors"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator masks censored words in outgoing text, matching through leet speak and noise characters.
type Moderator struct {
	log         *slog.Logger
	matcher     *goahocorasick.Machine
	replacement rune
}

// folded is a text reduced to its searchable runes; origin[i] is the index in the original runes of folded[i].
type folded struct {
	runes  []rune
	origin []int
}

// ParseWords splits a comma separated list, dropping blanks and duplicates.
func ParseWords(list string) []string {
	words := lo.Map(strings.Split(list, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	})
	return lo.Uniq(lo.Compact(words))
}

// NewModerator returns ErrEmptyWords when no word survives normalization.
func NewModerator(words []string, replacement rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if f := fold(word); len(f.runes) > 0 {
			patterns = append(patterns, f.runes)
		}
	}
	if len(patterns) == 0 {
		return nil, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	log.Debug("Moderator ready", "patterns", len(patterns))
	return &Moderator{log: log, matcher: m, replacement: replacement}, nil
}

// Censor replaces every matched span of the original text, noise included, and reports the matched words.
func (m *Moderator) Censor(text string) (string, []string) {
	f := fold(text)
	if len(f.runes) == 0 {
		return text, nil
	}
	hits := m.matcher.MultiPatternSearch(f.runes, false)
	if len(hits) == 0 {
		return text, nil
	}

	out := []rune(text)
	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		last := hit.Pos + len(hit.Word) - 1
		if hit.Pos < 0 || last >= len(f.origin) {
			continue
		}
		for i := f.origin[hit.Pos]; i <= f.origin[last]; i++ {
			out[i] = m.replacement
		}
		words = append(words, string(hit.Word))
	}
	return string(out), words
}

func fold(s string) folded {
	runes := []rune(s)
	f := folded{runes: make([]rune, 0, len(runes)), origin: make([]int, 0, len(runes))}
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.runes = append(f.runes, unicode.ToLower(r))
		f.origin = append(f.origin, i)
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
	}
	return r
}
