package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/jwalitptl/carebook-api/internal/model"
)

type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ParseView defaults to the week view.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "":
		return ViewWeek, nil
	case ViewDay, ViewWeek, ViewMonth:
		return View(s), nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Period is the half-open range [Start, End) covered by a view.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Contains(day time.Time) bool {
	return !day.Before(p.Start) && day.Before(p.End)
}

// PeriodFor returns the days shown by view around anchor. Weeks run Monday
// to Sunday.
func PeriodFor(view View, anchor time.Time) Period {
	day := dateOf(anchor)
	switch view {
	case ViewDay:
		return Period{Start: day, End: day.AddDate(0, 0, 1)}
	case ViewMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Start: first, End: first.AddDate(0, 1, 0)}
	default:
		start := day.AddDate(0, 0, -weekdayIndex(day))
		return Period{Start: start, End: start.AddDate(0, 0, 7)}
	}
}

// Day groups the bookings of one calendar date, ordered by time.
type Day struct {
	Date     string                 `json:"date"`
	Bookings []*model.BookingDetail `json:"bookings"`
	// Conflicts lists the times holding more than one upcoming booking.
	// Submission does not prevent double booking, so staff resolve these.
	Conflicts []string `json:"conflicts,omitempty"`
}

// Partition buckets bookings into every day of the view's period. Days
// without bookings are included with an empty list.
func Partition(bookings []*model.BookingDetail, view View, anchor time.Time) []Day {
	period := PeriodFor(view, anchor)

	byDate := make(map[string][]*model.BookingDetail)
	for _, b := range bookings {
		day := dateOf(b.BookingDate)
		if !period.Contains(day) {
			continue
		}
		key := day.Format(model.DateLayout)
		byDate[key] = append(byDate[key], b)
	}

	var days []Day
	for d := period.Start; d.Before(period.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(model.DateLayout)
		list := byDate[key]
		if list == nil {
			list = []*model.BookingDetail{}
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].BookingTime < list[j].BookingTime })
		days = append(days, Day{Date: key, Bookings: list, Conflicts: conflicts(list)})
	}
	return days
}

// conflicts expects list sorted by time.
func conflicts(list []*model.BookingDetail) []string {
	var out []string
	counts := make(map[string]int)
	for _, b := range list {
		if !b.Status.IsUpcoming() {
			continue
		}
		counts[b.BookingTime]++
		if counts[b.BookingTime] == 2 {
			out = append(out, b.BookingTime)
		}
	}
	return out
}

// NextAppointment returns the earliest pending or confirmed booking that
// starts after now, or nil.
func NextAppointment(bookings []*model.BookingDetail, now time.Time) *model.BookingDetail {
	var next *model.BookingDetail
	var nextStart time.Time
	for _, b := range bookings {
		if !b.Status.IsUpcoming() {
			continue
		}
		start := b.StartsAt(now.Location())
		if !start.After(now) {
			continue
		}
		if next == nil || start.Before(nextStart) {
			next, nextStart = b, start
		}
	}
	return next
}

// MonthGrid returns the Monday-first weeks needed to draw anchor's month,
// padded with days from the neighbouring months.
func MonthGrid(anchor time.Time) [][]time.Time {
	month := PeriodFor(ViewMonth, anchor)
	start := month.Start.AddDate(0, 0, -weekdayIndex(month.Start))

	var weeks [][]time.Time
	for d := start; d.Before(month.End); {
		week := make([]time.Time, 7)
		for i := range week {
			week[i] = d
			d = d.AddDate(0, 0, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// weekdayIndex is 0 for Monday through 6 for Sunday.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
