package itinerary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/churai/backend/internal/model/trip"
)

func TestExportEnglish(t *testing.T) {
	editor := NewEditor(trip.Seed())

	text := editor.Export(LanguageEnglish)
	lines := strings.Split(text, "\n")

	require.Equal(t, "6-Day Romantic Luxury Wellness & Adventure in Japan", lines[0])
	require.Contains(t, text, "Dates: Oct 1 - 3, 2024\n")
	require.Contains(t, text, "Destination: Japan\n")
	require.Contains(t, text, "Day 1 - Tuesday, October 1\n14:00 - Arrive at Kyoto at Kyoto Station (2 hours)")
	require.Contains(t, text, "19:00 - Dinner at Michelin Star Restaurant at Pontocho Alley (2 hours)\n\nDay 2 - Wednesday, October 2")
	require.True(t, strings.HasSuffix(text, "10:00 - Travel to Hakone at Hakone (3 hours)"))
}

func TestExportChinese(t *testing.T) {
	editor := NewEditor(trip.Seed())

	text := editor.Export(LanguageChinese)
	require.Contains(t, text, "日期：2024年10月1日 - 2024年10月3日")
	require.Contains(t, text, "第1天 - 10月1日 星期二")
	require.Contains(t, text, "14:00 - Arrive at Kyoto，地点：Kyoto Station（2 hours）")
}

func TestExportSkipsEmptyParts(t *testing.T) {
	editor := NewEditor(trip.Trip{
		Title:       "Quick hop",
		Destination: "Osaka",
		Days: []trip.Day{
			{Date: "2024-12-31", Activities: []trip.Activity{{Title: "Countdown"}}},
			{Date: "2025-01-01"},
			{Date: "someday"},
		},
	})

	text := editor.Export(LanguageEnglish)
	require.Contains(t, text, "Dates: Dec 31, 2024 - Jan 1, 2025")
	require.Contains(t, text, "Day 1 - Tuesday, December 31\nCountdown")
	require.Contains(t, text, "Day 3 - someday")
}

func TestExportReflectsCommittedStateOnly(t *testing.T) {
	editor := NewEditor(trip.Seed())
	target := editor.View().Trip.Days[0].Activities[0]

	require.True(t, editor.BeginEdit(target.ID))
	require.True(t, editor.UpdateField(Title("Draft title")))
	require.NotContains(t, editor.Export(LanguageEnglish), "Draft title")
}
