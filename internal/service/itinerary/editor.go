package itinerary

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
)

// Language selects the wording of generated text such as default titles.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
)

// ParseLanguage falls back to English for anything it doesn't know.
func ParseLanguage(raw string) Language {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "zh") {
		return LanguageChinese
	}
	return LanguageEnglish
}

func (l Language) newActivityTitle() string {
	if l == LanguageChinese {
		return "新活动"
	}
	return "New Activity"
}

const dateLayout = "2006-01-02"

// cursor is the single activity open for editing and its working copy.
type cursor struct {
	activityID string
	working    trip.Activity
}

// Editor owns one trip and its edit cursor. All methods are safe for
// concurrent use; lookups that miss leave the trip untouched and report
// false instead of failing.
type Editor struct {
	mu     sync.RWMutex
	trip   trip.Trip
	cursor *cursor
	lang   Language
	newID  func() string
}

// NewEditor takes a private copy of t, filling in any missing identifiers.
func NewEditor(t trip.Trip) *Editor {
	e := &Editor{
		trip:  t.Clone(),
		lang:  LanguageEnglish,
		newID: uuid.NewString,
	}
	if e.trip.ID == "" {
		e.trip.ID = e.newID()
	}
	for d := range e.trip.Days {
		if e.trip.Days[d].Activities == nil {
			e.trip.Days[d].Activities = []trip.Activity{}
		}
		for a := range e.trip.Days[d].Activities {
			if e.trip.Days[d].Activities[a].ID == "" {
				e.trip.Days[d].Activities[a].ID = e.newID()
			}
		}
	}
	if e.trip.Days == nil {
		e.trip.Days = []trip.Day{}
	}
	return e
}

// ID returns the trip identifier.
func (e *Editor) ID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trip.ID
}

// View returns a copy of the committed trip plus the working copy, if any.
func (e *Editor) View() trip.View {
	e.mu.RLock()
	defer e.mu.RUnlock()

	view := trip.View{Trip: e.trip.Clone(), Language: string(e.lang)}
	if e.cursor != nil {
		working := e.cursor.working.Clone()
		view.Editing = &working
	}
	return view
}

// EditingID returns the id under edit, or "" when no edit is in progress.
func (e *Editor) EditingID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cursor == nil {
		return ""
	}
	return e.cursor.activityID
}

// BeginEdit opens a working copy of the activity with the given id,
// wherever it lives in the trip. Any other edit in progress is dropped.
func (e *Editor) BeginEdit(activityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	day, idx := e.findLocked(activityID)
	if day < 0 {
		return false
	}
	e.cursor = &cursor{
		activityID: activityID,
		working:    e.trip.Days[day].Activities[idx].Clone(),
	}
	return true
}

// UpdateField changes the working copy only.
func (e *Editor) UpdateField(f Field) bool {
	if f == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursor == nil {
		return false
	}
	f.apply(&e.cursor.working)
	e.cursor.working.ID = e.cursor.activityID
	return true
}

// CommitEdit writes the working copy over the activity at (dayIndex,
// activityID), keeping its position, and closes the edit.
func (e *Editor) CommitEdit(dayIndex int, activityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursor == nil || e.cursor.activityID != activityID {
		return false
	}
	if dayIndex < 0 || dayIndex >= len(e.trip.Days) {
		return false
	}

	acts := e.trip.Days[dayIndex].Activities
	for i := range acts {
		if acts[i].ID == activityID {
			acts[i] = e.cursor.working.Clone()
			e.cursor = nil
			return true
		}
	}
	return false
}

// CancelEdit discards the working copy.
func (e *Editor) CancelEdit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursor == nil {
		return false
	}
	e.cursor = nil
	return true
}

// DeleteActivity removes the activity from the day. Deleting the activity
// under edit abandons the edit in the same step.
func (e *Editor) DeleteActivity(dayIndex int, activityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if dayIndex < 0 || dayIndex >= len(e.trip.Days) {
		return false
	}

	acts := e.trip.Days[dayIndex].Activities
	for i := range acts {
		if acts[i].ID != activityID {
			continue
		}
		e.trip.Days[dayIndex].Activities = append(acts[:i:i], acts[i+1:]...)
		if e.cursor != nil && e.cursor.activityID == activityID {
			e.cursor = nil
		}
		return true
	}
	return false
}

// AddActivity appends a placeholder activity to the day and opens it for edit.
func (e *Editor) AddActivity(dayIndex int) (trip.Activity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if dayIndex < 0 || dayIndex >= len(e.trip.Days) {
		return trip.Activity{}, false
	}

	act := trip.Activity{
		ID:       e.newID(),
		Title:    e.lang.newActivityTitle(),
		Category: trip.CategoryActivity,
	}
	e.trip.Days[dayIndex].Activities = append(e.trip.Days[dayIndex].Activities, act)
	e.cursor = &cursor{activityID: act.ID, working: act.Clone()}
	return act, true
}

// AddDay appends an empty day and returns its index.
func (e *Editor) AddDay(date, location string) (int, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return -1, ErrInvalidDate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.trip.Days = append(e.trip.Days, trip.Day{
		Date:       date,
		Location:   strings.TrimSpace(location),
		Activities: []trip.Activity{},
	})
	return len(e.trip.Days) - 1, nil
}

// RemoveDay drops a day with all its activities; an edit inside it is abandoned.
func (e *Editor) RemoveDay(dayIndex int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if dayIndex < 0 || dayIndex >= len(e.trip.Days) {
		return false
	}
	if e.cursor != nil {
		for _, act := range e.trip.Days[dayIndex].Activities {
			if act.ID == e.cursor.activityID {
				e.cursor = nil
				break
			}
		}
	}
	days := e.trip.Days
	e.trip.Days = append(days[:dayIndex:dayIndex], days[dayIndex+1:]...)
	return true
}

// Rename sets the trip title; blank titles are ignored.
func (e *Editor) Rename(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.trip.Title = title
	return true
}

// SetDestination changes the trip destination; blank values are ignored.
func (e *Editor) SetDestination(destination string) bool {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.trip.Destination = destination
	return true
}

// SetLanguage switches the wording used for generated text.
func (e *Editor) SetLanguage(lang Language) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lang = lang
}

func (e *Editor) findLocked(activityID string) (int, int) {
	if activityID == "" {
		return -1, -1
	}
	for d, day := range e.trip.Days {
		for a, act := range day.Activities {
			if act.ID == activityID {
				return d, a
			}
		}
	}
	return -1, -1
}
