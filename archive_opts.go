package farc

import "log/slog"

// DefaultMaxEntries is the table size limit used when no WithMaxEntries option is set.
const DefaultMaxEntries = 1 << 20

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for parse and name-recovery tracing.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithMaxEntries limits the number of table entries accepted while parsing.
// Set limit to 0 to disable the limit.
func WithMaxEntries(limit uint32) Option {
	return func(a *Archive) {
		a.maxEntries = limit
	}
}
