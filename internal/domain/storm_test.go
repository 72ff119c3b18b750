package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestBasinLabel(t *testing.T) {
	assert.Equal(t, "North Atlantic", BasinNorthAtlantic.Label(LanguageEnglish))
	assert.Equal(t, "East Pacific", BasinEastPacific.Label(LanguageEnglish))
	assert.Equal(t, "Atlántico Norte", BasinNorthAtlantic.Label(LanguageSpanish))
	assert.Equal(t, "Pacífico Este", BasinEastPacific.Label(LanguageSpanish))

	t.Run("unknown basin passes through", func(t *testing.T) {
		assert.Equal(t, "west_pacific", Basin("west_pacific").Label(LanguageSpanish))
	})

	t.Run("unknown language falls back to english", func(t *testing.T) {
		assert.Equal(t, "North Atlantic", BasinNorthAtlantic.Label("fr"))
	})
}

func TestSummarize(t *testing.T) {
	storms := []Storm{
		{ID: "AL05", Category: 3, Basin: BasinNorthAtlantic, Status: StatusActive},
		{ID: "AL06", Category: 2, Basin: BasinNorthAtlantic, Status: StatusActive},
		{ID: "97L", Category: 1, Basin: BasinNorthAtlantic, Status: StatusWatch},
		{ID: "EP01", Category: 3, Basin: BasinEastPacific, Status: StatusActive},
	}

	s := Summarize(storms)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Severe)
	assert.Equal(t, 1, s.Watch)
	assert.Equal(t, map[Basin]int{BasinNorthAtlantic: 3, BasinEastPacific: 1}, s.ByBasin)
}

func TestNewSnapshot(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	snap := NewSnapshot("20240615", []Storm{{ID: "AL05"}})
	assert.Equal(t, DateKey("20240615"), snap.Date)
	assert.Equal(t, fake.Now(), snap.FetchedAt)
	assert.Len(t, snap.Storms, 1)
}
