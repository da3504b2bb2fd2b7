package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showgrid/showgrid-go/internal/errors"
)

func newTestOrchestrator(fs *fakeStore) *UpsertOrchestrator {
	matcher := NewEventMatcher(fs, nil, 0, nil)
	venues := NewVenueRegistry(fs, nil, nil, nil, nil)
	return NewUpsertOrchestrator(fs, matcher, venues, nil)
}

func samplePayload() *EventPayload {
	return &EventPayload{
		Title:     "Jazz Night",
		Date:      "2025-06-01",
		Time:      "20:00",
		VenueName: "Blue Room",
		Venue: VenueAttributes{
			Address: "500 Congress Ave",
			City:    "Austin",
			State:   "TX",
		},
		TicketURL:   "https://tix.example.com/e/42",
		Price:       "$10",
		Description: "An evening of jazz.",
	}
}

func TestUpsert_CreatesNewEvent(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	result, err := uo.Upsert(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, result.Action)

	event, err := fs.GetEvent(result.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", event.Title)
	assert.Equal(t, NormalizeTicketURL("https://tix.example.com/e/42"), event.TicketURLNorm)
	assert.NotZero(t, event.VenueID)

	venue, err := fs.GetVenue(event.VenueID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Room", venue.Name)
	assert.Equal(t, "500 Congress Ave", venue.Address)
}

func TestUpsert_SecondRunIsNoChange(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	first, err := uo.Upsert(context.Background(), samplePayload())
	require.NoError(t, err)
	require.Equal(t, ActionCreated, first.Action)

	second, err := uo.Upsert(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, ActionNoChange, second.Action)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpsert_ChangedPriceUpdates(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	first, err := uo.Upsert(context.Background(), samplePayload())
	require.NoError(t, err)

	payload := samplePayload()
	payload.Price = "$15"

	second, err := uo.Upsert(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, second.Action)
	assert.Equal(t, first.ID, second.ID)

	event, err := fs.GetEvent(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "$15", event.Price)
}

func TestUpsert_TitleOverwrittenOnTicketURLMatch(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	first, err := uo.Upsert(context.Background(), samplePayload())
	require.NoError(t, err)

	// Same ticket URL with tracking noise, retitled by the source.
	payload := samplePayload()
	payload.Title = "Jazz Night: Extended Edition"
	payload.TicketURL = "https://tix.example.com/e/42?utm_source=newsletter"

	second, err := uo.Upsert(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, second.Action)
	assert.Equal(t, first.ID, second.ID)

	event, err := fs.GetEvent(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night: Extended Edition", event.Title)
}

func TestUpsert_ClearedFieldIsWritten(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	first, err := uo.Upsert(context.Background(), samplePayload())
	require.NoError(t, err)

	payload := samplePayload()
	payload.Price = ""

	second, err := uo.Upsert(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, second.Action)

	event, err := fs.GetEvent(first.ID)
	require.NoError(t, err)
	assert.Empty(t, event.Price)
}

func TestUpsert_MissingTitle(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	payload := samplePayload()
	payload.Title = "   "

	_, err := uo.Upsert(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestUpsert_DistinctShowsStayDistinct(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	// Bracketed qualifiers strip to the same core title, so only the time
	// window keeps these apart.
	early := samplePayload()
	early.Title = "Jazz Night (Early)"
	early.Time = "17:00"
	early.TicketURL = "https://tix.example.com/e/100"

	late := samplePayload()
	late.Title = "Jazz Night (Late)"
	late.Time = "22:00"
	late.TicketURL = "https://tix.example.com/e/101"

	first, err := uo.Upsert(context.Background(), early)
	require.NoError(t, err)
	require.Equal(t, ActionCreated, first.Action)

	second, err := uo.Upsert(context.Background(), late)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, second.Action)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestUpsert_PromoterAttached(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	payload := samplePayload()
	payload.Organizer = "Margin Walker"
	payload.OrganizerType = "Organization"
	payload.OrganizerURL = "https://marginwalker.example.com"

	result, err := uo.Upsert(context.Background(), payload)
	require.NoError(t, err)

	event, err := fs.GetEvent(result.ID)
	require.NoError(t, err)
	require.NotZero(t, event.PromoterID)

	promoter, err := fs.PromoterByName("Margin Walker")
	require.NoError(t, err)
	assert.Equal(t, promoter.ID, event.PromoterID)
	assert.Equal(t, "Organization", promoter.Type)
}

func TestUpsert_VenueMetadataMergedAcrossEvents(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	// First event creates the venue with partial metadata.
	first := samplePayload()
	first.Venue = VenueAttributes{Address: "500 Congress Ave", City: "Austin"}
	_, err := uo.Upsert(context.Background(), first)
	require.NoError(t, err)

	// A later event at the same venue supplies the phone number.
	second := samplePayload()
	second.Title = "Blues Night"
	second.Date = "2025-06-08"
	second.TicketURL = "https://tix.example.com/e/43"
	second.Venue = VenueAttributes{
		Address: "500 Congress Ave",
		City:    "Austin",
		Phone:   "512-555-0100",
	}
	_, err = uo.Upsert(context.Background(), second)
	require.NoError(t, err)

	venue, err := fs.VenueByName("Blue Room")
	require.NoError(t, err)
	assert.Equal(t, "512-555-0100", venue.Phone)
	assert.Equal(t, "Austin", venue.City)
}

func TestUpsert_VenueResolutionFailureDoesNotFailUpsert(t *testing.T) {
	fs := newFakeStore()
	uo := newTestOrchestrator(fs)

	// No geocoder configured, venue still resolves; this exercises the
	// best-effort path with a payload that has no venue at all.
	payload := samplePayload()
	payload.VenueName = ""
	payload.Venue = VenueAttributes{}

	result, err := uo.Upsert(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, result.Action)

	event, err := fs.GetEvent(result.ID)
	require.NoError(t, err)
	assert.Zero(t, event.VenueID)
}
