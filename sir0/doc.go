// Package sir0 decodes and encodes SIR0 relocatable data containers.
//
// A SIR0 container starts with a 16-byte header: the magic "SIR0", the
// offset of the data header, the offset of the pointer list, and four zero
// bytes. The data header occupies the bytes between those two offsets. The
// pointer list records every position in the container that holds an
// absolute offset, encoded as base-128 deltas and terminated by a zero byte.
//
// All offsets are relative to the start of the container.
package sir0
