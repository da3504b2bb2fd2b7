// model.go this code defines the data model for the event catalog
package datastore

import "time"

// Event represents a single scheduled occurrence in the catalog
type Event struct {
	ID    uint   `gorm:"primaryKey"`
	Title string `gorm:"index:idx_events_title"`

	// Date and time are stored as strings ("2006-01-02" / "15:04") so that
	// partial information survives round trips; many sources provide a date
	// without a clock time.
	Date    string `gorm:"index:idx_events_date"`
	Time    string
	EndDate string
	EndTime string

	// Weak references, venue and promoter lifecycle is independent of events
	VenueID    uint `gorm:"index:idx_events_venue"`
	PromoterID uint

	TicketURL string
	// TicketURLNorm holds the normalized ticket URL used for matching,
	// maintained on every write.
	TicketURLNorm string `gorm:"index:idx_events_ticketurlnorm"`

	Description       string `gorm:"type:text"`
	Price             string
	PriceCurrency     string
	Performer         string
	PerformerType     string
	Organizer         string
	OrganizerType     string
	OrganizerURL      string
	EventStatus       string
	PreviousStartDate string
	OfferAvailability string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Venue represents a physical location shared by many events
type Venue struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"index:idx_venues_name"`
	Address string
	City    string `gorm:"index:idx_venues_city"`
	State   string
	Zip     string
	Country string
	Phone   string
	Website string
	// Capacity is free-form text, sources report values like "450" or "~500 standing"
	Capacity string
	// Coordinates is a "lat,lng" string, empty until geocoded. Once set it is
	// never overwritten by automatic geocoding.
	Coordinates string
	// Timezone is an IANA name, empty until derived. Once set it is never
	// overwritten by automatic derivation.
	Timezone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Promoter represents an event organizer, keyed by exact name
type Promoter struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex:idx_promoters_name"`
	URL  string
	Type string

	CreatedAt time.Time
	UpdatedAt time.Time
}
