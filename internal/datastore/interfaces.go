// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/showgrid/showgrid-go/internal/conf"
	"github.com/showgrid/showgrid-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations the upsert engine needs from the record store.
type Interface interface {
	Open() error
	Close() error

	// Events
	GetEvent(id uint) (Event, error)
	CreateEvent(event *Event) error
	UpdateEvent(id uint, fields map[string]any) error
	EventsByTicketURL(ticketURLNorm, date string) ([]Event, error)
	EventsByVenueOnDate(venueID uint, date string) ([]Event, error)
	EventsByTitle(title, date string) ([]Event, error)

	// Venues
	GetVenue(id uint) (Venue, error)
	VenueByName(name string) (Venue, error)
	VenuesWithCity() ([]Venue, error)
	VenuesMissingCoordinates() ([]Venue, error)
	CreateVenue(venue *Venue) error
	UpdateVenue(id uint, fields map[string]any) error

	// Promoters
	PromoterByName(name string) (Promoter, error)
	CreatePromoter(promoter *Promoter) error
	UpdatePromoter(id uint, fields map[string]any) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.IsNotFound(err)
}

// Close closes the database connection.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return fmt.Errorf("getting underlying database handle: %w", err)
	}
	return sqlDB.Close()
}

// GetEvent retrieves an event by its ID.
func (ds *DataStore) GetEvent(id uint) (Event, error) {
	var event Event
	if err := ds.DB.First(&event, id).Error; err != nil {
		return Event{}, ds.wrapNotFound(err, "event", id)
	}
	return event, nil
}

// CreateEvent inserts a new event record and populates its ID.
func (ds *DataStore) CreateEvent(event *Event) error {
	if err := ds.DB.Create(event).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "create-event").
			Build()
	}
	return nil
}

// UpdateEvent writes the given fields onto an existing event record.
func (ds *DataStore) UpdateEvent(id uint, fields map[string]any) error {
	result := ds.DB.Model(&Event{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("operation", "update-event").
			Context("event_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("event %d not found", id).
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// EventsByTicketURL returns events whose normalized ticket URL matches and
// whose stored date falls on the given calendar day.
func (ds *DataStore) EventsByTicketURL(ticketURLNorm, date string) ([]Event, error) {
	var events []Event
	err := ds.DB.Where("ticket_url_norm = ? AND date = ?", ticketURLNorm, date).
		Order("id").
		Find(&events).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "events-by-ticket-url").
			Build()
	}
	return events, nil
}

// EventsByVenueOnDate returns events attached to the venue on the given calendar day.
func (ds *DataStore) EventsByVenueOnDate(venueID uint, date string) ([]Event, error) {
	var events []Event
	err := ds.DB.Where("venue_id = ? AND date = ?", venueID, date).
		Order("id").
		Find(&events).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "events-by-venue-on-date").
			Context("venue_id", venueID).
			Build()
	}
	return events, nil
}

// EventsByTitle returns events with exactly equal title, optionally filtered
// by date when date is non-empty.
func (ds *DataStore) EventsByTitle(title, date string) ([]Event, error) {
	var events []Event
	query := ds.DB.Where("title = ?", title)
	if date != "" {
		query = query.Where("date = ?", date)
	}
	if err := query.Order("id").Find(&events).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "events-by-title").
			Build()
	}
	return events, nil
}

// GetVenue retrieves a venue by its ID.
func (ds *DataStore) GetVenue(id uint) (Venue, error) {
	var venue Venue
	if err := ds.DB.First(&venue, id).Error; err != nil {
		return Venue{}, ds.wrapNotFound(err, "venue", id)
	}
	return venue, nil
}

// VenueByName retrieves a venue by exact name.
func (ds *DataStore) VenueByName(name string) (Venue, error) {
	var venue Venue
	if err := ds.DB.Where("name = ?", name).First(&venue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Venue{}, errors.Newf("venue %q not found", name).
				Category(errors.CategoryNotFound).
				Build()
		}
		return Venue{}, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "venue-by-name").
			Build()
	}
	return venue, nil
}

// VenuesWithCity returns all venues that have a non-empty city, the candidate
// set for normalized address matching.
func (ds *DataStore) VenuesWithCity() ([]Venue, error) {
	var venues []Venue
	err := ds.DB.Where("city != ''").Order("id").Find(&venues).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "venues-with-city").
			Build()
	}
	return venues, nil
}

// VenuesMissingCoordinates returns venues that have address data but no
// stored coordinates, candidates for geocoding retries.
func (ds *DataStore) VenuesMissingCoordinates() ([]Venue, error) {
	var venues []Venue
	err := ds.DB.Where("coordinates = '' AND (address != '' OR city != '')").
		Order("id").
		Find(&venues).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "venues-missing-coordinates").
			Build()
	}
	return venues, nil
}

// CreateVenue inserts a new venue record and populates its ID.
func (ds *DataStore) CreateVenue(venue *Venue) error {
	if err := ds.DB.Create(venue).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "create-venue").
			Build()
	}
	return nil
}

// UpdateVenue writes the given fields onto an existing venue record.
func (ds *DataStore) UpdateVenue(id uint, fields map[string]any) error {
	result := ds.DB.Model(&Venue{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("operation", "update-venue").
			Context("venue_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("venue %d not found", id).
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// PromoterByName retrieves a promoter by exact name.
func (ds *DataStore) PromoterByName(name string) (Promoter, error) {
	var promoter Promoter
	if err := ds.DB.Where("name = ?", name).First(&promoter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Promoter{}, errors.Newf("promoter %q not found", name).
				Category(errors.CategoryNotFound).
				Build()
		}
		return Promoter{}, errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "promoter-by-name").
			Build()
	}
	return promoter, nil
}

// CreatePromoter inserts a new promoter record and populates its ID.
func (ds *DataStore) CreatePromoter(promoter *Promoter) error {
	if err := ds.DB.Create(promoter).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Context("operation", "create-promoter").
			Build()
	}
	return nil
}

// UpdatePromoter writes the given fields onto an existing promoter record.
func (ds *DataStore) UpdatePromoter(id uint, fields map[string]any) error {
	result := ds.DB.Model(&Promoter{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return errors.New(result.Error).
			Category(errors.CategoryDatabase).
			Context("operation", "update-promoter").
			Context("promoter_id", id).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("promoter %d not found", id).
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// wrapNotFound converts gorm.ErrRecordNotFound into a category-not-found
// enhanced error, other errors into database errors.
func (ds *DataStore) wrapNotFound(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Newf("%s %d not found", kind, id).
			Category(errors.CategoryNotFound).
			Build()
	}
	return errors.New(err).
		Category(errors.CategoryDatabase).
		Context("operation", fmt.Sprintf("get-%s", kind)).
		Build()
}
