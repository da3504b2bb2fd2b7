package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgrid/showgrid-go/internal/datastore"
)

func newTestMatcher(fs *fakeStore) *EventMatcher {
	return NewEventMatcher(fs, nil, 0, nil)
}

func TestFindExisting_TicketURLBeatsDifferingTitle(t *testing.T) {
	fs := newFakeStore()
	eventID := mustCreateEvent(fs, datastore.Event{
		Title:     "Jazz Night",
		Date:      "2025-06-01",
		TicketURL: "https://tix.example.com/e/42?utm_source=mail",
	})

	em := newTestMatcher(fs)

	// Same stable ticket URL, completely different title text.
	id, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "An Evening of Jazz",
		Date:      "2025-06-01",
		TicketURL: "https://TIX.example.com/e/42?fbclid=abc",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, eventID, id)
}

func TestFindExisting_TicketURLRequiresSameDay(t *testing.T) {
	fs := newFakeStore()
	mustCreateEvent(fs, datastore.Event{
		Title:     "Jazz Night",
		Date:      "2025-06-01",
		TicketURL: "https://tix.example.com/e/42",
	})

	em := newTestMatcher(fs)

	_, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Jazz Night Two",
		Date:      "2025-06-02",
		TicketURL: "https://tix.example.com/e/42",
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindExisting_VenueDateTitle(t *testing.T) {
	fs := newFakeStore()
	venueID := mustCreateVenue(fs, datastore.Venue{Name: "Blue Room"})
	eventID := mustCreateEvent(fs, datastore.Event{
		Title:   "The Jazz Quartet at Blue Room",
		Date:    "2025-06-01",
		Time:    "20:00",
		VenueID: venueID,
	})

	em := newTestMatcher(fs)

	// Core titles match after stripping the venue suffix and article.
	id, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Jazz Quartet",
		VenueName: "Blue Room",
		Date:      "2025-06-01",
		Time:      "21:30",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, eventID, id)
}

func TestFindExisting_TimeWindowSeparatesEarlyAndLateShow(t *testing.T) {
	fs := newFakeStore()
	venueID := mustCreateVenue(fs, datastore.Venue{Name: "Blue Room"})
	earlyID := mustCreateEvent(fs, datastore.Event{
		Title:   "Jazz Quartet",
		Date:    "2025-06-01",
		Time:    "17:00",
		VenueID: venueID,
	})
	lateID := mustCreateEvent(fs, datastore.Event{
		Title:   "Jazz Quartet",
		Date:    "2025-06-01",
		Time:    "22:00",
		VenueID: venueID,
	})

	em := newTestMatcher(fs)

	// 22:30 is 5.5h after the early show and 0.5h after the late one.
	id, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Jazz Quartet",
		VenueName: "Blue Room",
		Date:      "2025-06-01",
		Time:      "22:30",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, lateID, id)
	assert.NotEqual(t, earlyID, id)
}

func TestFindExisting_TimeWindowBoundary(t *testing.T) {
	fs := newFakeStore()
	venueID := mustCreateVenue(fs, datastore.Venue{Name: "Blue Room"})
	mustCreateEvent(fs, datastore.Event{
		Title:   "Jazz Quartet",
		Date:    "2025-06-01",
		Time:    "20:00",
		VenueID: venueID,
	})

	em := newTestMatcher(fs)

	tests := []struct {
		name      string
		time      string
		wantFound bool
	}{
		{"within window", "21:30", true},
		{"exactly at window edge", "22:00", true},
		{"outside window", "23:00", false},
		{"no incoming time skips check", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found, err := em.FindExisting(context.Background(), MatchQuery{
				Title:     "Jazz Quartet",
				VenueName: "Blue Room",
				Date:      "2025-06-01",
				Time:      tt.time,
				TicketURL: "",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestFindExisting_StoredEventWithoutTimeSkipsWindow(t *testing.T) {
	fs := newFakeStore()
	venueID := mustCreateVenue(fs, datastore.Venue{Name: "Blue Room"})
	eventID := mustCreateEvent(fs, datastore.Event{
		Title:   "Jazz Quartet",
		Date:    "2025-06-01",
		VenueID: venueID,
	})

	em := newTestMatcher(fs)

	id, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Jazz Quartet",
		VenueName: "Blue Room",
		Date:      "2025-06-01",
		Time:      "23:45",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, eventID, id)
}

func TestFindExisting_UnknownVenueFallsThroughToTitle(t *testing.T) {
	fs := newFakeStore()
	eventID := mustCreateEvent(fs, datastore.Event{
		Title: "Jazz Quartet",
		Date:  "2025-06-01",
	})

	em := newTestMatcher(fs)

	// Venue lookup misses, exact title still matches because the stored
	// event has no venue assigned.
	id, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Jazz Quartet",
		VenueName: "Nonexistent Hall",
		Date:      "2025-06-01",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, eventID, id)
}

func TestFindExisting_ExactTitleVenueGuard(t *testing.T) {
	fs := newFakeStore()
	blueRoomID := mustCreateVenue(fs, datastore.Venue{Name: "Blue Room"})
	redRoomID := mustCreateVenue(fs, datastore.Venue{Name: "Red Room"})

	blueEvent := mustCreateEvent(fs, datastore.Event{
		Title:   "Open Mic",
		Date:    "2025-06-01",
		VenueID: blueRoomID,
	})
	redEvent := mustCreateEvent(fs, datastore.Event{
		Title:   "Open Mic",
		Date:    "2025-06-01",
		VenueID: redRoomID,
	})

	em := newTestMatcher(fs)

	// Same title at a third venue must not steal either existing event.
	_, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Open Mic",
		VenueName: "Green Room",
		Date:      "2025-06-01",
	})
	require.NoError(t, err)
	assert.False(t, found)

	// Exact title plus the right venue picks the matching event.
	id, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title:     "Open Mic",
		VenueName: "Red Room",
		Date:      "2025-06-01",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, redEvent, id)
	assert.NotEqual(t, blueEvent, id)
}

func TestFindExisting_NoMatch(t *testing.T) {
	fs := newFakeStore()
	mustCreateEvent(fs, datastore.Event{Title: "Jazz Night", Date: "2025-06-01"})

	em := newTestMatcher(fs)

	_, found, err := em.FindExisting(context.Background(), MatchQuery{
		Title: "Completely Different Show",
		Date:  "2025-06-01",
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWithinTimeWindow(t *testing.T) {
	tests := []struct {
		name   string
		a, b   string
		within bool
	}{
		{"identical", "20:00", "20:00", true},
		{"ninety minutes apart", "20:00", "21:30", true},
		{"three hours apart", "20:00", "23:00", false},
		{"first empty", "", "20:00", true},
		{"second empty", "20:00", "", true},
		{"unparseable treated as missing", "8pm", "20:00", true},
		{"seconds precision", "20:00:00", "21:59:59", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.within, withinTimeWindow(tt.a, tt.b, DefaultTimeWindow))
		})
	}
}
