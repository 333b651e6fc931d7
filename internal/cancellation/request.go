// Package cancellation turns token sequences into structured cancellation
// requests and resolves them against the sender's students, applying grace
// periods and enrollment clamping. All expected failures are data, not
// errors.
package cancellation

import (
	"time"

	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
)

// BuildRequest folds a token sequence into a request or the first applicable
// user-input error. Unknown words short-circuit before anything else, then
// ambiguous ones, then the date-count policy.
func BuildRequest(tokens []messagedomain.Token) (messagedomain.CancellationRequest, *messagedomain.RequestError) {
	for _, token := range tokens {
		if token.Kind == messagedomain.TokenUnknown {
			return messagedomain.CancellationRequest{}, &messagedomain.RequestError{
				Kind: messagedomain.ErrUnknownTerm,
				Term: token.Word,
			}
		}
	}
	for _, token := range tokens {
		if token.Kind == messagedomain.TokenAmbiguous {
			return messagedomain.CancellationRequest{}, &messagedomain.RequestError{
				Kind: messagedomain.ErrAmbiguousTerm,
				Term: token.Word,
			}
		}
	}

	var request messagedomain.CancellationRequest
	var dates []time.Time
	for _, token := range tokens {
		switch token.Kind {
		case messagedomain.TokenDate:
			dates = append(dates, token.Date)
		case messagedomain.TokenStudent:
			request.StudentIDs = append(request.StudentIDs, token.EntityID)
		case messagedomain.TokenMeal:
			request.MealIDs = append(request.MealIDs, token.EntityID)
		}
	}

	switch len(dates) {
	case 0:
		return messagedomain.CancellationRequest{}, &messagedomain.RequestError{Kind: messagedomain.ErrNoDateSpecified}
	case 1:
		request.Since, request.Until = dates[0], dates[0]
	case 2:
		if dates[1].Before(dates[0]) {
			return messagedomain.CancellationRequest{}, &messagedomain.RequestError{Kind: messagedomain.ErrInvalidTimeRange}
		}
		request.Since, request.Until = dates[0], dates[1]
	default:
		return messagedomain.CancellationRequest{}, &messagedomain.RequestError{Kind: messagedomain.ErrTooManyDates}
	}
	return request, nil
}
