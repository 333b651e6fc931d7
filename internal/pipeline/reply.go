package pipeline

import (
	"fmt"
	"sort"
	"strings"

	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
)

// Replies go out in Polish, matching the guardians' SMS conventions.
const (
	replyNothingCancelled = "Nie odwołano żadnej obecności"
	replyInvalidTimeRange = "Podano nieprawidłowy zakres dat"
	replyTooManyDates     = "Podano zbyt wiele dat - należy podać pojedyńczą date nieobecności, lub okres pomiędzy 2 datami odseparowane spacją"
	replyNoDateSpecified  = "Nie podano żadnej daty - należy podać pojedyńczą date nieobecności, lub okres pomiędzy 2 datami odseparowane spacją"
	replyNoStudent        = "Do tego numeru telefonu nie jest przypisany żaden uczeń"
)

// composeResult renders the confirmation reply. Zero-count meals are left
// out; when nothing at all was effectively cancelled the guardian gets an
// explicit "nothing happened" message instead of an empty list.
func composeResult(results []messagedomain.CancellationResult) string {
	any := false
	for _, result := range results {
		for _, count := range result.Meals {
			if count != 0 {
				any = true
			}
		}
	}
	if !any {
		return replyNothingCancelled
	}

	lines := make([]string, 0, len(results))
	for _, result := range results {
		names := make([]string, 0, len(result.Meals))
		for name := range result.Meals {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			if count := result.Meals[name]; count != 0 {
				parts = append(parts, fmt.Sprintf("%s %d", name, count))
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", result.Name, strings.Join(parts, ", ")))
	}
	return "Odwołano: \n" + strings.Join(lines, "\n")
}

// composeError renders one user-input error, naming the offending word for
// the matching failures so the guardian knows what to fix.
func composeError(rerr *messagedomain.RequestError) string {
	switch rerr.Kind {
	case messagedomain.ErrInvalidTimeRange:
		return replyInvalidTimeRange
	case messagedomain.ErrTooManyDates:
		return replyTooManyDates
	case messagedomain.ErrNoDateSpecified:
		return replyNoDateSpecified
	case messagedomain.ErrNoStudentSpecified:
		return replyNoStudent
	case messagedomain.ErrUnknownTerm:
		return fmt.Sprintf("Termin '%s' nie jest prawidłowym określeniem na posiłek / ucznia", rerr.Term)
	case messagedomain.ErrAmbiguousTerm:
		return fmt.Sprintf("Termin '%s' może odnosić się do więcej niż jednego posiłku / ucznia", rerr.Term)
	default:
		return replyNothingCancelled
	}
}
