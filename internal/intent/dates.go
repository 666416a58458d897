package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var inDurationRe = regexp.MustCompile(`^in\s+(\d+)\s+(hour|hours|day|days|week|weeks)$`)

// ResolveDueDate turns a date phrase into a concrete timestamp relative to
// now. Relative phrases resolve to the nearest future occurrence; bare dates
// resolve to midnight local time, matching how users state deadlines
// ("by friday" means the start of that day is already close).
func ResolveDueDate(phrase string, now time.Time) (time.Time, error) {
	value := strings.ToLower(strings.TrimSpace(phrase))
	value = strings.TrimPrefix(value, "on ")
	value = strings.TrimSpace(value)

	if value == "" {
		return time.Time{}, fmt.Errorf("empty date phrase")
	}

	switch value {
	case "today":
		return startOfDay(now), nil
	case "tomorrow":
		return startOfDay(now.AddDate(0, 0, 1)), nil
	case "next week":
		return startOfDay(now.AddDate(0, 0, 7)), nil
	}

	// "next friday" means the same thing as "friday" here: the nearest
	// strictly-future occurrence. Stripped only after the phrase switch so
	// "next week" is not reduced to "week".
	value = strings.TrimPrefix(value, "next ")

	if wd, ok := weekdays[value]; ok {
		return nextWeekday(now, wd), nil
	}

	if m := inDurationRe.FindStringSubmatch(value); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case strings.HasPrefix(m[2], "hour"):
			return now.Add(time.Duration(n) * time.Hour), nil
		case strings.HasPrefix(m[2], "day"):
			return startOfDay(now.AddDate(0, 0, n)), nil
		default:
			return startOfDay(now.AddDate(0, 0, 7*n)), nil
		}
	}

	for _, layout := range dateLayouts {
		if layout == time.RFC3339 {
			if parsed, err := time.Parse(layout, phrase); err == nil {
				return parsed, nil
			}
			continue
		}
		if parsed, err := time.ParseInLocation(layout, strings.TrimSpace(phrase), now.Location()); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", phrase)
}

// nextWeekday returns the nearest strictly-future occurrence of wd.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return startOfDay(now.AddDate(0, 0, days))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
