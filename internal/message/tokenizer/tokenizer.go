// Package tokenizer splits inbound message text into classified tokens:
// dates in three human formats, fuzzy-matched student and meal references,
// and unknown or ambiguous words.
package tokenizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/canteenhq/canteend/internal/fuzzy"
	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

// Date patterns, most specific first. Separators -, . and / are
// interchangeable. Compiled once at process start.
var (
	longDateRe  = regexp.MustCompile(`^(\d{1,2})[-./](\d{1,2})[-./](\d{4})$`)
	shortDateRe = regexp.MustCompile(`^(\d{1,2})[-./](\d{1,2})[-./](\d{2})$`)
	dayMonthRe  = regexp.MustCompile(`^(\d{1,2})[-./](\d{1,2})$`)
)

// maxMatchDistance bounds the fuzzy lookup; anything farther from every
// vocabulary entry is Unknown.
const maxMatchDistance = 3

// Tokenize lower-cases and splits the message content on whitespace and
// classifies each word against the arrival time and the sender's roster.
// Pure function of its inputs.
func Tokenize(content string, arrivedAt time.Time, students []rosterdomain.Student) []messagedomain.Token {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(content)))
	tokens := make([]messagedomain.Token, 0, len(words))
	vocab := buildVocabulary(students)
	for _, word := range words {
		tokens = append(tokens, classify(word, arrivedAt, vocab))
	}
	return tokens
}

type vocabularyEntry struct {
	name  string
	token messagedomain.Token
}

func buildVocabulary(students []rosterdomain.Student) []vocabularyEntry {
	meals := lo.FlatMap(students, func(s rosterdomain.Student, _ int) []vocabularyEntry {
		return lo.Map(s.Meals, func(m rosterdomain.Meal, _ int) vocabularyEntry {
			return vocabularyEntry{name: strings.ToLower(m.Name), token: messagedomain.MealToken(m.ID)}
		})
	})
	names := lo.Map(students, func(s rosterdomain.Student, _ int) vocabularyEntry {
		return vocabularyEntry{name: strings.ToLower(s.Name), token: messagedomain.StudentToken(s.ID)}
	})
	// Siblings share meals; the same entity must not tie with itself.
	return lo.UniqBy(append(meals, names...), func(e vocabularyEntry) vocabularyEntry {
		return e
	})
}

func classify(word string, arrivedAt time.Time, vocab []vocabularyEntry) messagedomain.Token {
	if match := longDateRe.FindStringSubmatch(word); match != nil {
		return dateToken(word, atoi(match[3]), atoi(match[2]), atoi(match[1]))
	}
	if match := shortDateRe.FindStringSubmatch(word); match != nil {
		// Two-digit years expand into the century of the arrival year:
		// "15-03-25" received in 2025 is 2025-03-15.
		year := arrivedAt.Year()/100*100 + atoi(match[3])
		return dateToken(word, year, atoi(match[2]), atoi(match[1]))
	}
	if match := dayMonthRe.FindStringSubmatch(word); match != nil {
		return dayMonthToken(word, arrivedAt, atoi(match[2]), atoi(match[1]))
	}
	return matchEntity(word, vocab)
}

// dayMonthToken resolves a year-less date to its next occurrence on or after
// the arrival date.
func dayMonthToken(word string, arrivedAt time.Time, month, day int) messagedomain.Token {
	token := dateToken(word, arrivedAt.Year(), month, day)
	if token.Kind != messagedomain.TokenDate {
		return token
	}
	arrival := civilDate(arrivedAt)
	if token.Date.Before(arrival) {
		return messagedomain.DateToken(addYearClamped(token.Date))
	}
	return token
}

// addYearClamped moves a date one year ahead. Feb 29 clamps to Feb 28 when
// the target year has no leap day, instead of normalizing into March.
func addYearClamped(date time.Time) time.Time {
	next := date.AddDate(1, 0, 0)
	if next.Month() != date.Month() {
		next = next.AddDate(0, 0, -1)
	}
	return next
}

func dateToken(word string, year, month, day int) messagedomain.Token {
	if month < 1 || month > 12 {
		return messagedomain.UnknownToken(word)
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Jan 32 becomes Feb 1); such
	// words are not calendar dates.
	if date.Day() != day || date.Month() != time.Month(month) {
		return messagedomain.UnknownToken(word)
	}
	return messagedomain.DateToken(date)
}

func matchEntity(word string, vocab []vocabularyEntry) messagedomain.Token {
	best := maxMatchDistance + 1
	var matched []messagedomain.Token
	for _, entry := range vocab {
		distance := fuzzy.Distance(entry.name, word)
		switch {
		case distance > maxMatchDistance:
		case distance < best:
			best = distance
			matched = matched[:0]
			matched = append(matched, entry.token)
		case distance == best:
			matched = append(matched, entry.token)
		}
	}

	switch len(matched) {
	case 0:
		return messagedomain.UnknownToken(word)
	case 1:
		return matched[0]
	default:
		return messagedomain.AmbiguousToken(word)
	}
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
