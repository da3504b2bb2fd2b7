// Package venues implements venue maintenance subcommands.
package venues

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/showgrid/showgrid-go/internal/catalog"
	"github.com/showgrid/showgrid-go/internal/conf"
	"github.com/showgrid/showgrid-go/internal/datastore"
	"github.com/showgrid/showgrid-go/internal/geocoding"
	"github.com/showgrid/showgrid-go/internal/logging"
	"github.com/showgrid/showgrid-go/internal/observability/metrics"
	"github.com/showgrid/showgrid-go/internal/timezone"
)

// Command creates the venues command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venues",
		Short: "Venue maintenance operations",
	}
	cmd.AddCommand(
		geocodeCommand(settings),
		updateCommand(settings),
	)
	return cmd
}

// geocodeCommand retries enrichment for venues that have address data but no
// stored coordinates.
func geocodeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode",
		Short: "Geocode venues that are missing coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Structured().With("service", "venues")

			store, registry, cleanup, err := buildRegistry(settings)
			if err != nil {
				return err
			}
			defer cleanup()

			venues, err := store.VenuesMissingCoordinates()
			if err != nil {
				return fmt.Errorf("error listing venues: %w", err)
			}

			for i := range venues {
				registry.EnrichVenue(cmd.Context(), venues[i].ID)
			}

			log.Info("geocoding pass finished", "venues", len(venues))
			return nil
		},
	}
}

// updateCommand applies an explicit field edit to a single venue. Fields are
// given as field=value pairs; an empty value clears the field.
func updateCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "update <venue-id> <field=value>...",
		Short: "Overwrite venue fields, re-geocoding on address changes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid venue id %q: %w", args[0], err)
			}

			fields := make(map[string]string, len(args)-1)
			for _, arg := range args[1:] {
				field, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid field assignment %q, want field=value", arg)
				}
				fields[field] = value
			}

			_, registry, cleanup, err := buildRegistry(settings)
			if err != nil {
				return err
			}
			defer cleanup()

			return registry.UpdateVenueMeta(cmd.Context(), uint(id), fields)
		},
	}
}

// buildRegistry opens the datastore and wires a venue registry over it.
func buildRegistry(settings *conf.Settings) (datastore.Interface, *catalog.VenueRegistry, func(), error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, nil, nil, fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return nil, nil, nil, fmt.Errorf("error opening datastore: %w", err)
	}

	geocoder := geocoding.NewClient(geocoding.ConfigFromSettings(settings))
	tzClient := timezone.NewClient(timezone.ConfigFromSettings(settings))

	m, err := metrics.NewCatalogMetrics(prometheus.NewRegistry())
	if err != nil {
		geocoder.Close()
		tzClient.Close()
		_ = store.Close()
		return nil, nil, nil, fmt.Errorf("error setting up metrics: %w", err)
	}

	registry := catalog.NewVenueRegistry(store, geocoder, tzClient, nil, m)

	cleanup := func() {
		geocoder.Close()
		tzClient.Close()
		_ = store.Close()
	}
	return store, registry, cleanup, nil
}
