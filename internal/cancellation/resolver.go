package cancellation

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"

	messagedomain "github.com/canteenhq/canteend/internal/message/domain"
	rosterdomain "github.com/canteenhq/canteend/internal/roster/domain"
)

// Resolve expands a request into per-student cancellation windows. Students
// named in the request are the targets; a request naming none targets every
// student of the sender. Each window is clamped into the student's
// enrollment and the grace cutoff; students whose window empties out are
// dropped silently.
func Resolve(
	request messagedomain.CancellationRequest,
	students []rosterdomain.Student,
	arrivedAt time.Time,
) (messagedomain.AttendanceCancellation, *messagedomain.RequestError) {
	if len(students) == 0 {
		return messagedomain.AttendanceCancellation{}, &messagedomain.RequestError{
			Kind: messagedomain.ErrNoStudentSpecified,
		}
	}

	var cancellation messagedomain.AttendanceCancellation
	for _, student := range students {
		if len(request.StudentIDs) > 0 && !lo.Contains(request.StudentIDs, student.ID) {
			continue
		}

		meals := enrolledMeals(student, request.MealIDs)

		floor := earliestAllowedDay(arrivedAt, student.GracePeriod)
		if student.Starts.After(floor) {
			floor = student.Starts
		}

		since := clamp(request.Since, floor, student.Ends)
		until := clamp(request.Until, floor, student.Ends)
		if since.After(until) {
			// Entirely outside the allowed window; no rows, no error.
			continue
		}

		cancellation.Students = append(cancellation.Students, messagedomain.StudentCancellation{
			StudentID: student.ID,
			MealIDs:   meals,
			Since:     since,
			Until:     until,
		})
	}
	return cancellation, nil
}

// earliestAllowedDay computes the grace floor: once the cutoff time has
// passed, the next day can no longer be cancelled either, so the first
// cancellable day is the day of (arrival - grace) plus one.
func earliestAllowedDay(arrivedAt time.Time, grace time.Duration) time.Time {
	shifted := arrivedAt.Add(-grace)
	day := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, 1)
}

func enrolledMeals(student rosterdomain.Student, requested []snowflake.ID) []snowflake.ID {
	ids := lo.Map(student.Meals, func(m rosterdomain.Meal, _ int) snowflake.ID { return m.ID })
	if len(requested) == 0 {
		return ids
	}
	return lo.Filter(ids, func(id snowflake.ID, _ int) bool {
		return lo.Contains(requested, id)
	})
}

// clamp applies since' = max(floor, min(end, value)).
func clamp(value, floor, end time.Time) time.Time {
	if value.After(end) {
		value = end
	}
	if value.Before(floor) {
		value = floor
	}
	return value
}
