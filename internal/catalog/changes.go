package catalog

import (
	"log/slog"
	"strings"
)

// Attributes is the comparable view of an event used for change detection.
// Venue and Address carry the assigned venue's name and address so that a
// venue change on an incoming payload registers as an event change.
type Attributes struct {
	StartDate         string
	EndDate           string
	StartTime         string
	EndTime           string
	Venue             string
	Address           string
	Price             string
	TicketURL         string
	Performer         string
	PerformerType     string
	Organizer         string
	OrganizerType     string
	OrganizerURL      string
	EventStatus       string
	PreviousStartDate string
	PriceCurrency     string
	OfferAvailability string
	Description       string
}

// comparedFields returns the fixed, ordered field list used for change
// detection. The order only affects which differing field gets logged first.
func (a *Attributes) comparedFields() []struct{ name, value string } {
	return []struct{ name, value string }{
		{"startDate", a.StartDate},
		{"endDate", a.EndDate},
		{"startTime", a.StartTime},
		{"endTime", a.EndTime},
		{"venue", a.Venue},
		{"address", a.Address},
		{"price", a.Price},
		{"ticketUrl", a.TicketURL},
		{"performer", a.Performer},
		{"performerType", a.PerformerType},
		{"organizer", a.Organizer},
		{"organizerType", a.OrganizerType},
		{"organizerUrl", a.OrganizerURL},
		{"eventStatus", a.EventStatus},
		{"previousStartDate", a.PreviousStartDate},
		{"priceCurrency", a.PriceCurrency},
		{"offerAvailability", a.OfferAvailability},
		{"description", a.Description},
	}
}

// ChangeDetector decides whether a matched event needs a write.
type ChangeDetector struct {
	log *slog.Logger
}

// NewChangeDetector creates a change detector logging through log.
func NewChangeDetector(log *slog.Logger) *ChangeDetector {
	return &ChangeDetector{log: log}
}

// HasChanged compares existing against incoming attributes field by field and
// reports true on the first difference. Missing values on either side are
// empty strings, so an explicitly cleared field counts as a change.
func (cd *ChangeDetector) HasChanged(existing, incoming *Attributes) bool {
	existingFields := existing.comparedFields()
	incomingFields := incoming.comparedFields()

	for i := range existingFields {
		oldValue := strings.TrimSpace(existingFields[i].value)
		newValue := strings.TrimSpace(incomingFields[i].value)
		if oldValue != newValue {
			if cd.log != nil {
				cd.log.Debug("attribute changed",
					"field", existingFields[i].name,
					"old", oldValue,
					"new", newValue)
			}
			return true
		}
	}
	return false
}
