package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/showgrid/showgrid-go/internal/datastore"
	"github.com/showgrid/showgrid-go/internal/errors"
	"github.com/showgrid/showgrid-go/internal/observability/metrics"
)

// Action describes what an upsert did.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionNoChange Action = "no_change"
)

// Result is the outcome of a single upsert.
type Result struct {
	ID     uint
	Action Action
}

// UpsertOrchestrator ties matching, change detection and venue resolution
// together into the single entry point import handlers call per event.
type UpsertOrchestrator struct {
	store   datastore.Interface
	matcher *EventMatcher
	changes *ChangeDetector
	venues  *VenueRegistry
	metrics *metrics.CatalogMetrics
	log     *slog.Logger
}

// NewUpsertOrchestrator creates an orchestrator over the given collaborators.
func NewUpsertOrchestrator(store datastore.Interface, matcher *EventMatcher, venues *VenueRegistry, m *metrics.CatalogMetrics) *UpsertOrchestrator {
	log := serviceLogger().With("component", "upsert")
	return &UpsertOrchestrator{
		store:   store,
		matcher: matcher,
		changes: NewChangeDetector(log),
		venues:  venues,
		metrics: m,
		log:     log,
	}
}

// Upsert creates, updates or skips the event described by payload.
//
// The matched event's attributes, title included, are overwritten from the
// incoming payload on update. Venue and promoter resolution run after the
// event write and are best-effort: their failures are logged, not returned.
func (uo *UpsertOrchestrator) Upsert(ctx context.Context, payload *EventPayload) (Result, error) {
	start := time.Now()
	defer func() {
		uo.metrics.ObserveUpsertDuration(time.Since(start).Seconds())
	}()

	payload.Title = strings.TrimSpace(payload.Title)
	if payload.Title == "" {
		uo.metrics.RecordUpsert("error")
		return Result{}, errors.Newf("event payload has no title").
			Category(errors.CategoryValidation).
			Build()
	}

	job := uuid.New().String()
	log := uo.log.With("job_id", job, "title", payload.Title, "date", payload.Date)

	id, found, err := uo.matcher.FindExisting(ctx, MatchQuery{
		Title:     payload.Title,
		VenueName: payload.VenueName,
		Date:      payload.Date,
		Time:      payload.Time,
		TicketURL: payload.TicketURL,
	})
	if err != nil {
		uo.metrics.RecordUpsert("error")
		return Result{}, err
	}

	if !found {
		return uo.create(ctx, payload, log)
	}
	return uo.update(ctx, id, payload, log)
}

// create inserts a new event and resolves its relations.
func (uo *UpsertOrchestrator) create(ctx context.Context, payload *EventPayload, log *slog.Logger) (Result, error) {
	event := datastore.Event{
		Title:             payload.Title,
		Date:              payload.Date,
		Time:              payload.Time,
		EndDate:           payload.EndDate,
		EndTime:           payload.EndTime,
		TicketURL:         payload.TicketURL,
		TicketURLNorm:     NormalizeTicketURL(payload.TicketURL),
		Description:       payload.Description,
		Price:             payload.Price,
		PriceCurrency:     payload.PriceCurrency,
		Performer:         payload.Performer,
		PerformerType:     payload.PerformerType,
		Organizer:         payload.Organizer,
		OrganizerType:     payload.OrganizerType,
		OrganizerURL:      payload.OrganizerURL,
		EventStatus:       payload.EventStatus,
		PreviousStartDate: payload.PreviousStartDate,
		OfferAvailability: payload.OfferAvailability,
	}
	if err := uo.store.CreateEvent(&event); err != nil {
		uo.metrics.RecordUpsert("error")
		return Result{}, err
	}

	uo.resolveRelations(ctx, event.ID, payload, log)

	uo.metrics.RecordUpsert(string(ActionCreated))
	log.Info("event created", "event_id", event.ID)
	return Result{ID: event.ID, Action: ActionCreated}, nil
}

// update overwrites a matched event when the incoming payload differs from
// the stored state, otherwise leaves it untouched.
func (uo *UpsertOrchestrator) update(ctx context.Context, id uint, payload *EventPayload, log *slog.Logger) (Result, error) {
	event, err := uo.store.GetEvent(id)
	if err != nil {
		uo.metrics.RecordUpsert("error")
		return Result{}, err
	}

	existing := uo.storedAttributes(&event)
	incoming := payloadAttributes(payload)

	if !uo.changes.HasChanged(existing, incoming) {
		uo.metrics.RecordUpsert(string(ActionNoChange))
		log.Debug("event unchanged", "event_id", id)
		return Result{ID: id, Action: ActionNoChange}, nil
	}

	fields := map[string]any{
		"title":               payload.Title,
		"date":                payload.Date,
		"time":                payload.Time,
		"end_date":            payload.EndDate,
		"end_time":            payload.EndTime,
		"ticket_url":          payload.TicketURL,
		"ticket_url_norm":     NormalizeTicketURL(payload.TicketURL),
		"description":         payload.Description,
		"price":               payload.Price,
		"price_currency":      payload.PriceCurrency,
		"performer":           payload.Performer,
		"performer_type":      payload.PerformerType,
		"organizer":           payload.Organizer,
		"organizer_type":      payload.OrganizerType,
		"organizer_url":       payload.OrganizerURL,
		"event_status":        payload.EventStatus,
		"previous_start_date": payload.PreviousStartDate,
		"offer_availability":  payload.OfferAvailability,
	}
	if err := uo.store.UpdateEvent(id, fields); err != nil {
		uo.metrics.RecordUpsert("error")
		return Result{}, err
	}

	uo.resolveRelations(ctx, id, payload, log)

	uo.metrics.RecordUpsert(string(ActionUpdated))
	log.Info("event updated", "event_id", id)
	return Result{ID: id, Action: ActionUpdated}, nil
}

// resolveRelations attaches the venue and promoter named in the payload to
// the event. The event write has already happened; relation failures must
// not undo it, so they are logged and swallowed.
func (uo *UpsertOrchestrator) resolveRelations(ctx context.Context, eventID uint, payload *EventPayload, log *slog.Logger) {
	if payload.VenueName != "" {
		venueID, _, err := uo.venues.ResolveVenue(ctx, payload.VenueName, payload.Venue)
		if err != nil {
			log.Warn("venue resolution failed",
				"event_id", eventID,
				"venue", payload.VenueName,
				"error", err)
		} else if err := uo.store.UpdateEvent(eventID, map[string]any{"venue_id": venueID}); err != nil {
			log.Warn("failed to attach venue", "event_id", eventID, "error", err)
		}
	}

	if payload.Organizer != "" {
		promoterID, _, err := uo.venues.ResolvePromoter(ctx, payload.Organizer, PromoterAttributes{
			URL:  payload.OrganizerURL,
			Type: payload.OrganizerType,
		})
		if err != nil {
			log.Warn("promoter resolution failed",
				"event_id", eventID,
				"organizer", payload.Organizer,
				"error", err)
		} else if err := uo.store.UpdateEvent(eventID, map[string]any{"promoter_id": promoterID}); err != nil {
			log.Warn("failed to attach promoter", "event_id", eventID, "error", err)
		}
	}
}

// storedAttributes builds the comparable view of a stored event, pulling in
// the assigned venue's name and address so venue moves register as changes.
func (uo *UpsertOrchestrator) storedAttributes(event *datastore.Event) *Attributes {
	attrs := &Attributes{
		StartDate:         event.Date,
		EndDate:           event.EndDate,
		StartTime:         event.Time,
		EndTime:           event.EndTime,
		Price:             event.Price,
		TicketURL:         event.TicketURL,
		Performer:         event.Performer,
		PerformerType:     event.PerformerType,
		Organizer:         event.Organizer,
		OrganizerType:     event.OrganizerType,
		OrganizerURL:      event.OrganizerURL,
		EventStatus:       event.EventStatus,
		PreviousStartDate: event.PreviousStartDate,
		PriceCurrency:     event.PriceCurrency,
		OfferAvailability: event.OfferAvailability,
		Description:       event.Description,
	}
	if event.VenueID != 0 {
		venue, err := uo.store.GetVenue(event.VenueID)
		if err == nil {
			attrs.Venue = venue.Name
			attrs.Address = venue.Address
		}
	}
	return attrs
}

// payloadAttributes builds the comparable view of an incoming payload.
func payloadAttributes(payload *EventPayload) *Attributes {
	return &Attributes{
		StartDate:         payload.Date,
		EndDate:           payload.EndDate,
		StartTime:         payload.Time,
		EndTime:           payload.EndTime,
		Venue:             payload.VenueName,
		Address:           payload.Venue.Address,
		Price:             payload.Price,
		TicketURL:         payload.TicketURL,
		Performer:         payload.Performer,
		PerformerType:     payload.PerformerType,
		Organizer:         payload.Organizer,
		OrganizerType:     payload.OrganizerType,
		OrganizerURL:      payload.OrganizerURL,
		EventStatus:       payload.EventStatus,
		PreviousStartDate: payload.PreviousStartDate,
		PriceCurrency:     payload.PriceCurrency,
		OfferAvailability: payload.OfferAvailability,
		Description:       payload.Description,
	}
}
