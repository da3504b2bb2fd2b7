package catalog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/showgrid/showgrid-go/internal/datastore"
	"github.com/showgrid/showgrid-go/internal/errors"
	"github.com/showgrid/showgrid-go/internal/geocoding"
	"github.com/showgrid/showgrid-go/internal/observability/metrics"
	"github.com/showgrid/showgrid-go/internal/timezone"
)

// Venue resolution path labels reported to metrics.
const (
	resolveByAddress = "address"
	resolveByName    = "name"
	resolveByAlias   = "alias"
	resolveCreated   = "created"
)

// Enrichment status labels reported to metrics.
const (
	enrichSuccess = "success"
	enrichError   = "error"
	enrichSkipped = "skipped"
)

// addressFamilyFields are the venue fields that together identify a location.
// Filling or changing any of them affects geocoding.
var addressFamilyFields = []string{"address", "city", "state", "zip", "country"}

// NameHook normalizes or corrects a venue name just before creation.
// Deployments install alias/correction rules here; the default is identity.
type NameHook func(name string) string

// VenueRegistry owns venue and promoter entities: find-by-address,
// find-by-name with alias probing, creation and metadata merging, with
// geocoding and timezone derivation as side effects of merges.
type VenueRegistry struct {
	store    datastore.Interface
	geocoder *geocoding.Client
	tzClient *timezone.Client
	nameHook NameHook
	metrics  *metrics.CatalogMetrics
	log      *slog.Logger
}

// NewVenueRegistry creates a registry over the given store and enrichment
// clients. geocoder and tzClient may be nil when the respective service is
// not configured. nameHook may be nil for identity behavior.
func NewVenueRegistry(store datastore.Interface, geocoder *geocoding.Client, tzClient *timezone.Client, nameHook NameHook, m *metrics.CatalogMetrics) *VenueRegistry {
	if nameHook == nil {
		nameHook = func(name string) string { return name }
	}
	return &VenueRegistry{
		store:    store,
		geocoder: geocoder,
		tzClient: tzClient,
		nameHook: nameHook,
		metrics:  m,
		log:      serviceLogger().With("component", "venues"),
	}
}

// ResolveVenue finds or creates the venue for name and merges attrs into it.
// Address identity is stronger than name identity: when both address and
// city are provided the normalized pair is checked first, so that renamed or
// rebranded venues at a known address resolve to the existing entity.
func (vr *VenueRegistry) ResolveVenue(ctx context.Context, name string, attrs VenueAttributes) (id uint, created bool, err error) {
	if attrs.Address != "" && attrs.City != "" {
		venue, ok, err := vr.findByAddress(attrs.Address, attrs.City)
		if err != nil {
			return 0, false, err
		}
		if ok {
			vr.metrics.RecordVenueResolve(resolveByAddress)
			if err := vr.smartMerge(ctx, &venue, attrs); err != nil {
				return 0, false, err
			}
			return venue.ID, false, nil
		}
	}

	venue, path, ok, err := vr.findByName(name)
	if err != nil {
		return 0, false, err
	}
	if ok {
		vr.metrics.RecordVenueResolve(path)
		if err := vr.smartMerge(ctx, &venue, attrs); err != nil {
			return 0, false, err
		}
		return venue.ID, false, nil
	}

	return vr.createVenue(ctx, name, attrs)
}

// findByAddress scans venues that carry a city for a normalized
// (address, city) match.
func (vr *VenueRegistry) findByAddress(address, city string) (datastore.Venue, bool, error) {
	normAddress := NormalizeAddress(address)
	normCity := NormalizeAddress(city)

	venues, err := vr.store.VenuesWithCity()
	if err != nil {
		return datastore.Venue{}, false, err
	}

	for i := range venues {
		if venues[i].Address == "" {
			continue
		}
		if NormalizeAddress(venues[i].Address) == normAddress && NormalizeAddress(venues[i].City) == normCity {
			vr.log.Debug("venue matched by address",
				"venue_id", venues[i].ID,
				"address", normAddress,
				"city", normCity)
			return venues[i], true, nil
		}
	}
	return datastore.Venue{}, false, nil
}

// findByName looks a venue up by exact name and, failing that, probes the
// alias obtained by toggling a leading "The " prefix. That single heuristic
// is the full alias policy, deliberately narrow.
func (vr *VenueRegistry) findByName(name string) (datastore.Venue, string, bool, error) {
	venue, err := vr.store.VenueByName(name)
	if err == nil {
		return venue, resolveByName, true, nil
	}
	if !errors.IsNotFound(err) {
		return datastore.Venue{}, "", false, err
	}

	alias := toggleThePrefix(name)
	if alias == name {
		return datastore.Venue{}, "", false, nil
	}

	venue, err = vr.store.VenueByName(alias)
	if err == nil {
		vr.log.Debug("venue matched by alias", "name", name, "alias", alias)
		return venue, resolveByAlias, true, nil
	}
	if !errors.IsNotFound(err) {
		return datastore.Venue{}, "", false, err
	}
	return datastore.Venue{}, "", false, nil
}

// toggleThePrefix adds a leading "The " when absent and strips it when present.
func toggleThePrefix(name string) string {
	if rest, ok := strings.CutPrefix(name, "The "); ok {
		return rest
	}
	if name == "" {
		return name
	}
	return "The " + name
}

// createVenue persists a new venue after applying the name hook, then
// triggers geocoding for whatever address data arrived with it.
func (vr *VenueRegistry) createVenue(ctx context.Context, name string, attrs VenueAttributes) (uint, bool, error) {
	venue := datastore.Venue{
		Name:        vr.nameHook(name),
		Address:     attrs.Address,
		City:        attrs.City,
		State:       attrs.State,
		Zip:         attrs.Zip,
		Country:     attrs.Country,
		Phone:       attrs.Phone,
		Website:     attrs.Website,
		Capacity:    attrs.Capacity,
		Coordinates: attrs.Coordinates,
	}
	if err := vr.store.CreateVenue(&venue); err != nil {
		return 0, false, err
	}

	vr.metrics.RecordVenueResolve(resolveCreated)
	vr.log.Info("venue created", "venue_id", venue.ID, "name", venue.Name)

	vr.maybeGeocode(ctx, venue.ID)
	return venue.ID, true, nil
}

// smartMerge fills empty stored fields from non-empty incoming values and
// never overwrites existing data. Filling an address-family field triggers
// geocoding; filling coordinates alone triggers timezone derivation only.
func (vr *VenueRegistry) smartMerge(ctx context.Context, venue *datastore.Venue, attrs VenueAttributes) error {
	stored := map[string]string{
		"address":     venue.Address,
		"city":        venue.City,
		"state":       venue.State,
		"zip":         venue.Zip,
		"country":     venue.Country,
		"phone":       venue.Phone,
		"website":     venue.Website,
		"capacity":    venue.Capacity,
		"coordinates": venue.Coordinates,
	}
	incoming := map[string]string{
		"address":     attrs.Address,
		"city":        attrs.City,
		"state":       attrs.State,
		"zip":         attrs.Zip,
		"country":     attrs.Country,
		"phone":       attrs.Phone,
		"website":     attrs.Website,
		"capacity":    attrs.Capacity,
		"coordinates": attrs.Coordinates,
	}

	updates := make(map[string]any)
	addressFilled := false
	coordinatesFilled := false

	for field, incomingValue := range incoming {
		if incomingValue == "" || stored[field] != "" {
			continue
		}
		updates[field] = incomingValue
		switch field {
		case "coordinates":
			coordinatesFilled = true
		case "address", "city", "state", "zip", "country":
			addressFilled = true
		}
	}

	if len(updates) > 0 {
		if err := vr.store.UpdateVenue(venue.ID, updates); err != nil {
			return err
		}
		vr.log.Debug("venue metadata merged",
			"venue_id", venue.ID,
			"fields", len(updates))
	}

	switch {
	case addressFilled:
		vr.maybeGeocode(ctx, venue.ID)
	case coordinatesFilled:
		coords, _ := updates["coordinates"].(string)
		vr.maybeDeriveTimezone(ctx, venue.ID, coords)
	}
	return nil
}

// UpdateVenueMeta applies an explicit operator edit: every field present in
// fields overwrites the stored value unconditionally. Changing any
// address-family field invalidates previously derived coordinates and
// re-triggers geocoding, unless the edit itself supplies coordinates. This
// is the only path that deletes coordinates.
func (vr *VenueRegistry) UpdateVenueMeta(ctx context.Context, id uint, fields map[string]string) error {
	venue, err := vr.store.GetVenue(id)
	if err != nil {
		if errors.IsNotFound(err) || datastore.IsNotFound(err) {
			vr.log.Warn("venue not found for explicit update", "venue_id", id)
		}
		return err
	}

	stored := map[string]string{
		"name":        venue.Name,
		"address":     venue.Address,
		"city":        venue.City,
		"state":       venue.State,
		"zip":         venue.Zip,
		"country":     venue.Country,
		"phone":       venue.Phone,
		"website":     venue.Website,
		"capacity":    venue.Capacity,
		"coordinates": venue.Coordinates,
		"timezone":    venue.Timezone,
	}

	updates := make(map[string]any, len(fields))
	addressChanged := false

	for field, newValue := range fields {
		oldValue, known := stored[field]
		if !known {
			continue
		}
		updates[field] = newValue
		for _, af := range addressFamilyFields {
			if field == af && newValue != oldValue {
				addressChanged = true
			}
		}
	}

	// Operator-supplied coordinates are authoritative; only derived ones
	// are invalidated by an address change.
	if addressChanged && fields["coordinates"] == "" {
		updates["coordinates"] = ""
		updates["timezone"] = ""
	}

	if len(updates) == 0 {
		return nil
	}

	if err := vr.store.UpdateVenue(id, updates); err != nil {
		return err
	}

	if addressChanged {
		vr.log.Info("venue address changed", "venue_id", id)
		vr.maybeGeocode(ctx, id)
	}
	return nil
}

// EnrichVenue runs the geocoding and timezone derivation pass for a single
// venue. Used by maintenance tooling to retry venues whose enrichment failed
// during import.
func (vr *VenueRegistry) EnrichVenue(ctx context.Context, venueID uint) {
	vr.maybeGeocode(ctx, venueID)
}

// maybeGeocode geocodes the venue's address unless coordinates are already
// present, in which case it still attempts timezone derivation from them.
// Failures are logged and swallowed; the next merge cycle retries naturally.
func (vr *VenueRegistry) maybeGeocode(ctx context.Context, venueID uint) {
	venue, err := vr.store.GetVenue(venueID)
	if err != nil {
		vr.log.Warn("failed to load venue for geocoding", "venue_id", venueID, "error", err)
		return
	}

	if venue.Coordinates != "" {
		vr.maybeDeriveTimezone(ctx, venueID, venue.Coordinates)
		return
	}

	var parts []string
	for _, value := range []string{venue.Address, venue.City, venue.State, venue.Zip, venue.Country} {
		if value != "" {
			parts = append(parts, value)
		}
	}
	if len(parts) == 0 {
		return
	}

	if !vr.geocoder.IsConfigured() {
		vr.metrics.RecordGeocode(enrichSkipped)
		return
	}

	query := strings.Join(parts, ", ")
	coords, err := vr.geocoder.Search(ctx, query)
	if err != nil {
		vr.metrics.RecordGeocode(enrichError)
		vr.log.Warn("geocoding failed",
			"venue_id", venueID,
			"query", query,
			"error", err)
		return
	}

	coordString := coords.String()
	if err := vr.store.UpdateVenue(venueID, map[string]any{"coordinates": coordString}); err != nil {
		vr.log.Warn("failed to store coordinates", "venue_id", venueID, "error", err)
		return
	}

	vr.metrics.RecordGeocode(enrichSuccess)
	vr.log.Info("venue geocoded", "venue_id", venueID, "coordinates", coordString)

	vr.maybeDeriveTimezone(ctx, venueID, coordString)
}

// maybeDeriveTimezone derives and stores the venue's IANA timezone from
// coordinates unless one is already stored or the lookup service is not
// configured. Failures are logged and swallowed.
func (vr *VenueRegistry) maybeDeriveTimezone(ctx context.Context, venueID uint, coordinates string) {
	venue, err := vr.store.GetVenue(venueID)
	if err != nil {
		vr.log.Warn("failed to load venue for timezone derivation", "venue_id", venueID, "error", err)
		return
	}
	if venue.Timezone != "" {
		return
	}

	if !vr.tzClient.IsConfigured() {
		vr.metrics.RecordTimezone(enrichSkipped)
		return
	}

	lat, lng, err := parseCoordinates(coordinates)
	if err != nil {
		vr.metrics.RecordTimezone(enrichError)
		vr.log.Warn("unparseable coordinates for timezone derivation",
			"venue_id", venueID,
			"coordinates", coordinates,
			"error", err)
		return
	}

	tz, err := vr.tzClient.Lookup(ctx, lat, lng)
	if err != nil {
		vr.metrics.RecordTimezone(enrichError)
		vr.log.Warn("timezone lookup failed", "venue_id", venueID, "error", err)
		return
	}

	if err := vr.store.UpdateVenue(venueID, map[string]any{"timezone": tz}); err != nil {
		vr.log.Warn("failed to store timezone", "venue_id", venueID, "error", err)
		return
	}

	vr.metrics.RecordTimezone(enrichSuccess)
	vr.log.Info("venue timezone derived", "venue_id", venueID, "timezone", tz)
}

// parseCoordinates splits a "lat,lng" string into its components.
func parseCoordinates(s string) (lat, lng float64, err error) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.Newf("coordinates %q are not in lat,lng form", s).
			Category(errors.CategoryValidation).
			Build()
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, err
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// ResolvePromoter finds or creates the promoter with the given exact name
// and smart-merges attrs into it. Promoters have no address concept, exact
// name match is the whole policy.
func (vr *VenueRegistry) ResolvePromoter(ctx context.Context, name string, attrs PromoterAttributes) (id uint, created bool, err error) {
	promoter, err := vr.store.PromoterByName(name)
	if err != nil {
		if !errors.IsNotFound(err) {
			return 0, false, err
		}
		fresh := datastore.Promoter{Name: name, URL: attrs.URL, Type: attrs.Type}
		if err := vr.store.CreatePromoter(&fresh); err != nil {
			return 0, false, err
		}
		vr.log.Info("promoter created", "promoter_id", fresh.ID, "name", name)
		return fresh.ID, true, nil
	}

	updates := make(map[string]any)
	if promoter.URL == "" && attrs.URL != "" {
		updates["url"] = attrs.URL
	}
	if promoter.Type == "" && attrs.Type != "" {
		updates["type"] = attrs.Type
	}
	if len(updates) > 0 {
		if err := vr.store.UpdatePromoter(promoter.ID, updates); err != nil {
			return 0, false, err
		}
	}
	return promoter.ID, false, nil
}
