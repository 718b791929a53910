package logging

import (
	"fmt"
	"io"
	"log/slog"
)

// SafeCloseWithLogging closes closer and logs a failure instead of
// returning it. Meant for defer.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		LogError(logger, "failed to close resource", err,
			slog.String("operation", operation),
			slog.String("component", "cleanup"))
	}
}

// HandleDeferredError runs op from a defer and stores its failure in *errp
// unless the function is already returning an error. The failure is
// logged either way.
func HandleDeferredError(errp *error, op func() error, logger *slog.Logger, operation string) {
	if op == nil {
		return
	}
	err := op()
	if err == nil {
		return
	}
	LogError(logger, "deferred operation failed", err,
		slog.String("operation", operation),
		slog.String("component", "cleanup"))
	if *errp == nil {
		*errp = fmt.Errorf("%s failed: %w", operation, err)
	}
}
