package catalog

import (
	"strings"
	"sync"

	"github.com/showgrid/showgrid-go/internal/datastore"
	"github.com/showgrid/showgrid-go/internal/errors"
)

// fakeStore is an in-memory datastore.Interface used across the package
// tests. It mirrors the query semantics of the GORM implementation closely
// enough to exercise the matching and merge logic.
type fakeStore struct {
	mu        sync.Mutex
	events    map[uint]datastore.Event
	venues    map[uint]datastore.Venue
	promoters map[uint]datastore.Promoter
	nextID    uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[uint]datastore.Event),
		venues:    make(map[uint]datastore.Venue),
		promoters: make(map[uint]datastore.Promoter),
		nextID:    1,
	}
}

func (fs *fakeStore) allocID() uint {
	id := fs.nextID
	fs.nextID++
	return id
}

func (fs *fakeStore) Open() error  { return nil }
func (fs *fakeStore) Close() error { return nil }

func (fs *fakeStore) GetEvent(id uint) (datastore.Event, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	event, ok := fs.events[id]
	if !ok {
		return datastore.Event{}, errors.Newf("event %d not found", id).Category(errors.CategoryNotFound).Build()
	}
	return event, nil
}

func (fs *fakeStore) CreateEvent(event *datastore.Event) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	event.ID = fs.allocID()
	fs.events[event.ID] = *event
	return nil
}

func (fs *fakeStore) UpdateEvent(id uint, fields map[string]any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	event, ok := fs.events[id]
	if !ok {
		return errors.Newf("event %d not found", id).Category(errors.CategoryNotFound).Build()
	}
	for field, value := range fields {
		s, _ := value.(string)
		switch field {
		case "title":
			event.Title = s
		case "date":
			event.Date = s
		case "time":
			event.Time = s
		case "end_date":
			event.EndDate = s
		case "end_time":
			event.EndTime = s
		case "venue_id":
			if v, ok := value.(uint); ok {
				event.VenueID = v
			}
		case "promoter_id":
			if v, ok := value.(uint); ok {
				event.PromoterID = v
			}
		case "ticket_url":
			event.TicketURL = s
		case "ticket_url_norm":
			event.TicketURLNorm = s
		case "description":
			event.Description = s
		case "price":
			event.Price = s
		case "price_currency":
			event.PriceCurrency = s
		case "performer":
			event.Performer = s
		case "performer_type":
			event.PerformerType = s
		case "organizer":
			event.Organizer = s
		case "organizer_type":
			event.OrganizerType = s
		case "organizer_url":
			event.OrganizerURL = s
		case "event_status":
			event.EventStatus = s
		case "previous_start_date":
			event.PreviousStartDate = s
		case "offer_availability":
			event.OfferAvailability = s
		}
	}
	fs.events[id] = event
	return nil
}

func (fs *fakeStore) eventsWhere(keep func(datastore.Event) bool) []datastore.Event {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []datastore.Event
	for id := uint(1); id < fs.nextID; id++ {
		event, ok := fs.events[id]
		if ok && keep(event) {
			out = append(out, event)
		}
	}
	return out
}

func (fs *fakeStore) EventsByTicketURL(ticketURLNorm, date string) ([]datastore.Event, error) {
	return fs.eventsWhere(func(e datastore.Event) bool {
		return e.TicketURLNorm == ticketURLNorm && e.Date == date
	}), nil
}

func (fs *fakeStore) EventsByVenueOnDate(venueID uint, date string) ([]datastore.Event, error) {
	return fs.eventsWhere(func(e datastore.Event) bool {
		return e.VenueID == venueID && e.Date == date
	}), nil
}

func (fs *fakeStore) EventsByTitle(title, date string) ([]datastore.Event, error) {
	return fs.eventsWhere(func(e datastore.Event) bool {
		return e.Title == title && (date == "" || e.Date == date)
	}), nil
}

func (fs *fakeStore) GetVenue(id uint) (datastore.Venue, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	venue, ok := fs.venues[id]
	if !ok {
		return datastore.Venue{}, errors.Newf("venue %d not found", id).Category(errors.CategoryNotFound).Build()
	}
	return venue, nil
}

func (fs *fakeStore) VenueByName(name string) (datastore.Venue, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for id := uint(1); id < fs.nextID; id++ {
		if venue, ok := fs.venues[id]; ok && venue.Name == name {
			return venue, nil
		}
	}
	return datastore.Venue{}, errors.Newf("venue %q not found", name).Category(errors.CategoryNotFound).Build()
}

func (fs *fakeStore) VenuesWithCity() ([]datastore.Venue, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []datastore.Venue
	for id := uint(1); id < fs.nextID; id++ {
		if venue, ok := fs.venues[id]; ok && venue.City != "" {
			out = append(out, venue)
		}
	}
	return out, nil
}

func (fs *fakeStore) VenuesMissingCoordinates() ([]datastore.Venue, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []datastore.Venue
	for id := uint(1); id < fs.nextID; id++ {
		venue, ok := fs.venues[id]
		if ok && venue.Coordinates == "" && (venue.Address != "" || venue.City != "") {
			out = append(out, venue)
		}
	}
	return out, nil
}

func (fs *fakeStore) CreateVenue(venue *datastore.Venue) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	venue.ID = fs.allocID()
	fs.venues[venue.ID] = *venue
	return nil
}

func (fs *fakeStore) UpdateVenue(id uint, fields map[string]any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	venue, ok := fs.venues[id]
	if !ok {
		return errors.Newf("venue %d not found", id).Category(errors.CategoryNotFound).Build()
	}
	for field, value := range fields {
		s, _ := value.(string)
		switch field {
		case "name":
			venue.Name = s
		case "address":
			venue.Address = s
		case "city":
			venue.City = s
		case "state":
			venue.State = s
		case "zip":
			venue.Zip = s
		case "country":
			venue.Country = s
		case "phone":
			venue.Phone = s
		case "website":
			venue.Website = s
		case "capacity":
			venue.Capacity = s
		case "coordinates":
			venue.Coordinates = s
		case "timezone":
			venue.Timezone = s
		}
	}
	fs.venues[id] = venue
	return nil
}

func (fs *fakeStore) PromoterByName(name string) (datastore.Promoter, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for id := uint(1); id < fs.nextID; id++ {
		if promoter, ok := fs.promoters[id]; ok && promoter.Name == name {
			return promoter, nil
		}
	}
	return datastore.Promoter{}, errors.Newf("promoter %q not found", name).Category(errors.CategoryNotFound).Build()
}

func (fs *fakeStore) CreatePromoter(promoter *datastore.Promoter) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	promoter.ID = fs.allocID()
	fs.promoters[promoter.ID] = *promoter
	return nil
}

func (fs *fakeStore) UpdatePromoter(id uint, fields map[string]any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	promoter, ok := fs.promoters[id]
	if !ok {
		return errors.Newf("promoter %d not found", id).Category(errors.CategoryNotFound).Build()
	}
	for field, value := range fields {
		s, _ := value.(string)
		switch field {
		case "name":
			promoter.Name = s
		case "url":
			promoter.URL = s
		case "type":
			promoter.Type = s
		}
	}
	fs.promoters[id] = promoter
	return nil
}

// mustCreateVenue seeds a venue and returns its id.
func mustCreateVenue(fs *fakeStore, venue datastore.Venue) uint {
	if err := fs.CreateVenue(&venue); err != nil {
		panic(err)
	}
	return venue.ID
}

// mustCreateEvent seeds an event, normalizing its ticket URL the way the
// upsert path does, and returns its id.
func mustCreateEvent(fs *fakeStore, event datastore.Event) uint {
	if event.TicketURL != "" && event.TicketURLNorm == "" {
		event.TicketURLNorm = NormalizeTicketURL(event.TicketURL)
	}
	event.Title = strings.TrimSpace(event.Title)
	if err := fs.CreateEvent(&event); err != nil {
		panic(err)
	}
	return event.ID
}
