package catalog

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/showgrid/showgrid-go/internal/datastore"
	"github.com/showgrid/showgrid-go/internal/errors"
	"github.com/showgrid/showgrid-go/internal/observability/metrics"
)

// DefaultTimeWindow is the tolerance used to distinguish the same show
// reported with slightly different times from a genuinely distinct early or
// late show at the same venue on the same date.
const DefaultTimeWindow = 2 * time.Hour

// Match strategy labels reported to metrics.
const (
	strategyTicketURL      = "ticket_url"
	strategyVenueDateTitle = "venue_date_title"
	strategyExactTitle     = "exact_title"
	strategyNone           = "none"
)

// MatchQuery carries the identity fields of an incoming event.
type MatchQuery struct {
	Title     string
	VenueName string
	Date      string // "2006-01-02"
	Time      string // "15:04", may be empty
	TicketURL string
}

// EventMatcher searches the record store for an existing event matching
// incoming identity fields. It is read-only and has no side effects.
type EventMatcher struct {
	store       datastore.Interface
	titlesMatch TitleMatcher
	timeWindow  time.Duration
	metrics     *metrics.CatalogMetrics
	log         *slog.Logger
}

// NewEventMatcher creates a matcher over the given store. titlesMatch may be
// nil, in which case DefaultTitlesMatch is used. timeWindow values <= 0 fall
// back to DefaultTimeWindow.
func NewEventMatcher(store datastore.Interface, titlesMatch TitleMatcher, timeWindow time.Duration, m *metrics.CatalogMetrics) *EventMatcher {
	if titlesMatch == nil {
		titlesMatch = DefaultTitlesMatch
	}
	if timeWindow <= 0 {
		timeWindow = DefaultTimeWindow
	}
	return &EventMatcher{
		store:       store,
		titlesMatch: titlesMatch,
		timeWindow:  timeWindow,
		metrics:     m,
		log:         serviceLogger().With("component", "matcher"),
	}
}

// FindExisting runs the matching cascade and returns the id of the first
// matching event, or found=false when no strategy yields a candidate.
//
// Strategy order: normalized ticket URL + calendar day, then fuzzy
// venue+date+title with a time-window tie-break, then exact title.
func (em *EventMatcher) FindExisting(ctx context.Context, q MatchQuery) (id uint, found bool, err error) {
	if id, found, err = em.matchByTicketURL(q); err != nil || found {
		if found {
			em.metrics.RecordMatch(strategyTicketURL)
		}
		return id, found, err
	}

	if id, found, err = em.matchByVenueDateTitle(q); err != nil || found {
		if found {
			em.metrics.RecordMatch(strategyVenueDateTitle)
		}
		return id, found, err
	}

	if id, found, err = em.matchByExactTitle(q); err != nil || found {
		if found {
			em.metrics.RecordMatch(strategyExactTitle)
		}
		return id, found, err
	}

	em.metrics.RecordMatch(strategyNone)
	return 0, false, nil
}

// matchByTicketURL is the strongest signal: ticketing platforms issue stable
// per-event URLs, catching cases where the title text varies between sources.
func (em *EventMatcher) matchByTicketURL(q MatchQuery) (uint, bool, error) {
	if q.TicketURL == "" || q.Date == "" {
		return 0, false, nil
	}

	norm := NormalizeTicketURL(q.TicketURL)
	if norm == "" {
		return 0, false, nil
	}

	events, err := em.store.EventsByTicketURL(norm, q.Date)
	if err != nil {
		return 0, false, err
	}
	if len(events) == 0 {
		return 0, false, nil
	}

	em.log.Debug("matched by ticket URL",
		"event_id", events[0].ID,
		"ticket_url", norm,
		"date", q.Date)
	return events[0].ID, true, nil
}

// matchByVenueDateTitle resolves the venue by exact name, fetches that
// venue's events on the calendar day and compares core titles. Candidates
// whose titles match are accepted only when their stored time falls within
// the configured window of the incoming time; candidates without a clock
// time on either side skip the time check.
func (em *EventMatcher) matchByVenueDateTitle(q MatchQuery) (uint, bool, error) {
	if q.VenueName == "" || q.Date == "" {
		return 0, false, nil
	}

	venue, err := em.store.VenueByName(q.VenueName)
	if err != nil {
		if errors.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	events, err := em.store.EventsByVenueOnDate(venue.ID, q.Date)
	if err != nil {
		return 0, false, err
	}

	for i := range events {
		if !em.titlesMatch(q.Title, events[i].Title) {
			continue
		}
		if !withinTimeWindow(q.Time, events[i].Time, em.timeWindow) {
			em.log.Debug("title matched but time outside window",
				"event_id", events[i].ID,
				"incoming_time", q.Time,
				"stored_time", events[i].Time)
			continue
		}
		em.log.Debug("matched by venue, date and title",
			"event_id", events[i].ID,
			"venue_id", venue.ID,
			"date", q.Date)
		return events[i].ID, true, nil
	}

	return 0, false, nil
}

// matchByExactTitle is the final fallback. A venue name, when given, guards
// against clobbering a manually curated distinct event that merely shares a
// title: the candidate must have the same venue or no venue at all.
func (em *EventMatcher) matchByExactTitle(q MatchQuery) (uint, bool, error) {
	if q.Title == "" {
		return 0, false, nil
	}

	events, err := em.store.EventsByTitle(q.Title, q.Date)
	if err != nil {
		return 0, false, err
	}

	for i := range events {
		if q.VenueName == "" || events[i].VenueID == 0 {
			em.log.Debug("matched by exact title", "event_id", events[i].ID)
			return events[i].ID, true, nil
		}

		venue, err := em.store.GetVenue(events[i].VenueID)
		if err != nil {
			if errors.IsNotFound(err) || datastore.IsNotFound(err) {
				// Dangling venue reference, treat like no venue assigned
				return events[i].ID, true, nil
			}
			return 0, false, err
		}
		if venue.Name == q.VenueName {
			em.log.Debug("matched by exact title and venue name", "event_id", events[i].ID)
			return events[i].ID, true, nil
		}
	}

	return 0, false, nil
}

// withinTimeWindow reports whether two "15:04" clock times are within the
// window of each other. An empty time on either side skips the check.
func withinTimeWindow(a, b string, window time.Duration) bool {
	if a == "" || b == "" {
		return true
	}

	ta, errA := parseClockTime(a)
	tb, errB := parseClockTime(b)
	if errA != nil || errB != nil {
		// Unparseable times behave like missing times
		return true
	}

	diff := math.Abs(ta.Sub(tb).Hours())
	return diff <= window.Hours()
}

// parseClockTime parses a local clock time in "15:04" or "15:04:05" form.
func parseClockTime(s string) (time.Time, error) {
	if t, err := time.Parse("15:04", s); err == nil {
		return t, nil
	}
	return time.Parse("15:04:05", s)
}
