package catalog

import (
	"io"
	"log/slog"

	"github.com/showgrid/showgrid-go/internal/logging"
)

// discardHandler is the fallback handler used when logging is not initialized.
var discardHandler slog.Handler = slog.NewTextHandler(io.Discard, nil)

// serviceLogger resolves the engine's logger when a component is constructed,
// after logging.Init has run. Falls back to a discard logger when logging is
// not initialized, as in tests.
func serviceLogger() *slog.Logger {
	if l := logging.ForService("catalog"); l != nil {
		return l
	}
	return slog.New(discardHandler).With("service", "catalog")
}
