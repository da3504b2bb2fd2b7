// Package catalog implements the event/venue upsert and resolution engine:
// the matching cascade that finds an existing event for incoming data, the
// change detection that decides create/update/skip, and the venue
// matching/merge/geocoding pipeline.
package catalog

// EventPayload is a normalized event produced by an import handler.
// All fields are strings, absence is represented by the empty string.
type EventPayload struct {
	Title   string `json:"title"`
	Date    string `json:"date"`    // "2006-01-02"
	Time    string `json:"time"`    // "15:04", empty when the source has no clock time
	EndDate string `json:"endDate"`
	EndTime string `json:"endTime"`

	VenueName string          `json:"venue"`
	Venue     VenueAttributes `json:"venueMeta"`

	TicketURL string `json:"ticketUrl"`

	Description       string `json:"description"`
	Price             string `json:"price"`
	PriceCurrency     string `json:"priceCurrency"`
	Performer         string `json:"performer"`
	PerformerType     string `json:"performerType"`
	Organizer         string `json:"organizer"`
	OrganizerType     string `json:"organizerType"`
	OrganizerURL      string `json:"organizerUrl"`
	EventStatus       string `json:"eventStatus"`
	PreviousStartDate string `json:"previousStartDate"`
	OfferAvailability string `json:"offerAvailability"`
}

// VenueAttributes carries venue metadata accompanying an event payload.
type VenueAttributes struct {
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Capacity    string `json:"capacity"`
	Coordinates string `json:"coordinates"` // "lat,lng", operator supplied
}

// IsEmpty reports whether no venue metadata was provided.
func (a VenueAttributes) IsEmpty() bool {
	return a == VenueAttributes{}
}

// PromoterAttributes carries promoter metadata accompanying an event payload.
type PromoterAttributes struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}
