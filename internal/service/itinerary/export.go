package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
)

var zhWeekdays = [...]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

// Export renders the committed itinerary as shareable plain text.
func (e *Editor) Export(lang Language) string {
	e.mu.RLock()
	t := e.trip.Clone()
	e.mu.RUnlock()

	var b strings.Builder
	b.WriteString(t.Title)
	b.WriteString("\n\n")

	if dates := dateRange(t.Days, lang); dates != "" {
		b.WriteString(label(lang, "Dates", "日期"))
		b.WriteString(dates)
		b.WriteString("\n")
	}
	b.WriteString(label(lang, "Destination", "目的地"))
	b.WriteString(t.Destination)
	b.WriteString("\n\n")
	b.WriteString(label(lang, "Itinerary", "行程"))
	b.WriteString("\n")

	for i, day := range t.Days {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(dayHeader(i, day, lang))
		for _, act := range day.Activities {
			b.WriteString("\n")
			b.WriteString(activityLine(act, lang))
		}
	}
	return b.String()
}

func label(lang Language, en, zh string) string {
	if lang == LanguageChinese {
		return zh + "："
	}
	return en + ": "
}

func dayHeader(index int, day trip.Day, lang Language) string {
	date, err := time.Parse(dateLayout, day.Date)
	if lang == LanguageChinese {
		if err != nil {
			return fmt.Sprintf("第%d天 - %s", index+1, day.Date)
		}
		return fmt.Sprintf("第%d天 - %d月%d日 %s", index+1, int(date.Month()), date.Day(), zhWeekdays[date.Weekday()])
	}
	if err != nil {
		return fmt.Sprintf("Day %d - %s", index+1, day.Date)
	}
	return fmt.Sprintf("Day %d - %s", index+1, date.Format("Monday, January 2"))
}

func activityLine(act trip.Activity, lang Language) string {
	var b strings.Builder
	if act.StartTime != "" {
		b.WriteString(act.StartTime)
		b.WriteString(" - ")
	}
	b.WriteString(act.Title)
	if act.Location != "" {
		if lang == LanguageChinese {
			b.WriteString("，地点：")
		} else {
			b.WriteString(" at ")
		}
		b.WriteString(act.Location)
	}
	if act.Duration != "" {
		if lang == LanguageChinese {
			b.WriteString("（" + act.Duration + "）")
		} else {
			b.WriteString(" (" + act.Duration + ")")
		}
	}
	return b.String()
}

// dateRange spans the earliest and latest parsable day dates.
func dateRange(days []trip.Day, lang Language) string {
	var first, last time.Time
	for _, day := range days {
		d, err := time.Parse(dateLayout, day.Date)
		if err != nil {
			continue
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	if first.IsZero() {
		return ""
	}

	if lang == LanguageChinese {
		if first.Equal(last) {
			return first.Format("2006年1月2日")
		}
		return first.Format("2006年1月2日") + " - " + last.Format("2006年1月2日")
	}

	switch {
	case first.Equal(last):
		return first.Format("Jan 2, 2006")
	case first.Year() != last.Year():
		return first.Format("Jan 2, 2006") + " - " + last.Format("Jan 2, 2006")
	case first.Month() != last.Month():
		return first.Format("Jan 2") + " - " + last.Format("Jan 2, 2006")
	default:
		return first.Format("Jan 2") + " - " + last.Format("2, 2006")
	}
}
