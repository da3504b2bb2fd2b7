// Package upsert implements the batch import subcommand: it reads event
// payloads as JSON lines and runs each through the upsert engine.
package upsert

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

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

// maxPayloadLine bounds a single JSON line, descriptions can get long.
const maxPayloadLine = 1024 * 1024

// errLineTooLong marks a payload line over maxPayloadLine. The line is
// consumed and skipped so the rest of the batch still imports.
var errLineTooLong = errors.New("payload line too long")

// readPayloadLine reads one newline-terminated line. Lines longer than
// maxPayloadLine are discarded to their end and reported with errLineTooLong.
func readPayloadLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)

		switch {
		case err == nil:
			return bytes.TrimSuffix(buf, []byte("\n")), nil
		case errors.Is(err, bufio.ErrBufferFull):
			if len(buf) > maxPayloadLine {
				if err := discardRestOfLine(r); err != nil && !errors.Is(err, io.EOF) {
					return nil, err
				}
				return nil, errLineTooLong
			}
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return nil, io.EOF
			}
			// Final line without a trailing newline
			return buf, nil
		default:
			return nil, err
		}
	}
}

// discardRestOfLine consumes input up to and including the next newline.
func discardRestOfLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return err
	}
}

// Command creates the upsert command, reading payloads from the given file
// or from stdin when no file is named.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upsert [payloads.jsonl]",
		Short: "Import events from a JSON lines file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := io.Reader(os.Stdin)
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("error opening payload file: %w", err)
				}
				defer f.Close()
				input = f
			}
			return runImport(cmd.Context(), settings, input)
		},
	}
	return cmd
}

// runImport wires the engine from settings and feeds it every payload line.
// Per-line failures are logged and counted, they do not stop the run.
func runImport(ctx context.Context, settings *conf.Settings, input io.Reader) error {
	log := logging.Structured().With("service", "import")

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("error opening datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close datastore", "error", err)
		}
	}()

	geocoder := geocoding.NewClient(geocoding.ConfigFromSettings(settings))
	defer geocoder.Close()
	tzClient := timezone.NewClient(timezone.ConfigFromSettings(settings))
	defer tzClient.Close()

	m, err := metrics.NewCatalogMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("error setting up metrics: %w", err)
	}

	window := time.Duration(settings.Import.TimeWindow * float64(time.Hour))
	matcher := catalog.NewEventMatcher(store, nil, window, m)
	registry := catalog.NewVenueRegistry(store, geocoder, tzClient, nil, m)
	engine := catalog.NewUpsertOrchestrator(store, matcher, registry, m)

	var line, created, updated, unchanged, failed int

	reader := bufio.NewReaderSize(input, 64*1024)

	for {
		raw, err := readPayloadLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if errors.Is(err, errLineTooLong) {
			failed++
			log.Error("payload line too long", "line", line, "limit_bytes", maxPayloadLine)
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading payloads: %w", err)
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}

		var payload catalog.EventPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			failed++
			log.Error("malformed payload line", "line", line, "error", err)
			continue
		}
		if payload.VenueName != "" && payload.Venue.Country == "" {
			payload.Venue.Country = settings.Import.DefaultCountry
		}

		result, err := engine.Upsert(ctx, &payload)
		if err != nil {
			failed++
			log.Error("upsert failed", "line", line, "title", payload.Title, "error", err)
			continue
		}

		switch result.Action {
		case catalog.ActionCreated:
			created++
		case catalog.ActionUpdated:
			updated++
		case catalog.ActionNoChange:
			unchanged++
		}
	}

	log.Info("import finished",
		"lines", line,
		"created", created,
		"updated", updated,
		"unchanged", unchanged,
		"failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d payloads failed", failed, line)
	}
	return nil
}
