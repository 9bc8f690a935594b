package farc

import "log/slog"

// DefaultReadWorkers is the number of concurrent reads FromArchive uses when
// WithReadWorkers is not set.
const DefaultReadWorkers = 4

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets the logger for the writer.
// If not set, logging is disabled.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithReadWorkers sets how many entries FromArchive reads concurrently.
// Values below 1 read sequentially.
func WithReadWorkers(n int) WriterOption {
	return func(w *Writer) {
		w.readWorkers = n
	}
}
