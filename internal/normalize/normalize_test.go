package normalize_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcal/internal/model"
	"eventcal/internal/normalize"
	"eventcal/internal/window"
)

func day(d int) time.Time {
	return time.Date(2025, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestMergeGroupsByKey(t *testing.T) {
	got := normalize.Merge([]model.Event{
		{Summary: "Food Fair", Start: day(12), End: day(12)},
		{Summary: "Food Fair", Start: day(12).Add(9 * time.Hour), End: day(12).Add(9 * time.Hour)},
		{Summary: "Food Fair", Start: day(13), End: day(13)}, // different day, distinct
	})

	require.Len(t, got, 2)
}

func TestMergePrefersLongerNonEmptyText(t *testing.T) {
	got := normalize.Merge([]model.Event{
		{Summary: "Food Fair", Start: day(12), End: day(12), Location: "Shrewsbury Market"},
		{Summary: "Food Fair", Start: day(12).Add(9 * time.Hour), End: day(12).Add(9 * time.Hour), Description: "Annual fair"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Shrewsbury Market", got[0].Location)
	assert.Equal(t, "Annual fair", got[0].Description)
}

func TestMergeLocalOverridesOutright(t *testing.T) {
	got := normalize.Merge([]model.Event{
		{
			Summary: "Market Day", Start: day(12), End: day(12),
			URL: "https://aggregator.example/everything", Location: "Somewhere long and generic",
			Description: "A very long description from an aggregator site",
		},
		{
			Summary: "Market Day", Start: day(12), End: day(12),
			URL: "https://shrewsbury.example/x", Local: true,
		},
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].Local)
	assert.Equal(t, "https://shrewsbury.example/x", got[0].URL)
	assert.Empty(t, got[0].Location, "local record replaces fields outright, even with shorter text")
	assert.Empty(t, got[0].Description)
}

func TestMergeExtendsEnd(t *testing.T) {
	got := normalize.Merge([]model.Event{
		{Summary: "Festival", Start: day(12), End: day(12)},
		{Summary: "Festival", Start: day(12), End: day(14)},
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].End.Equal(day(14)))
}

func TestMergeDefaultsSummary(t *testing.T) {
	got := normalize.Merge([]model.Event{{Start: day(12), End: day(12)}})
	require.Len(t, got, 1)
	assert.Equal(t, "Event", got[0].Summary)
}

// End-to-end shape of the common dedup case: two raw records for the
// same fair on the same day, one date-only and one timed, collapse to one
// canonical event through the filter and the merge.
func TestFilterThenMerge(t *testing.T) {
	raws := []model.RawEvent{
		{Summary: "Food Fair", Start: "2025-09-12", Location: "Shrewsbury Market"},
		{Summary: "Food Fair", Start: "2025-09-12T09:00:00Z", Description: "Annual fair"},
	}
	filtered := window.Filter(raws, window.Options{
		Now: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), PastDays: 7, FutureDays: 240,
	})
	got := normalize.Merge(filtered)

	require.Len(t, got, 1)
	assert.Equal(t, "Shrewsbury Market", got[0].Location)
	assert.Equal(t, "Annual fair", got[0].Description)
}
