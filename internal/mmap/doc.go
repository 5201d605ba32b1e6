// Package mmap provides read-only memory-mapped file access.
//
// Snapshot files are read front to back exactly once, so mappings here are
// opened read-only and usually advised with AccessSequential. Memory mapping
// avoids copying large run archives through userspace buffers.
//
// # Usage
//
//	m, err := mmap.Open("run.snap")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advice is a no-op)
//
// # Thread Safety
//
// Mapping is safe for concurrent reads. Close() is idempotent, but callers
// must ensure no goroutine touches Bytes() after Close() returns.
package mmap
