// Package partition provides independent read windows over one shared stream.
//
// A Shared wraps an io.ReadSeeker behind a mutex. Views created from it each
// keep their own cursor over a fixed byte range; every read locks the shared
// stream, seeks to the view's absolute position and reads, so views never
// observe each other's positions. Physical I/O against the underlying stream
// is fully serialized.
//
// If the underlying stream panics while the lock is held, the Shared is
// poisoned and every later operation returns ErrPoisoned.
package partition
