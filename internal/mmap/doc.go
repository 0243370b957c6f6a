// Package mmap provides read-only memory-mapped file access.
//
// Point-set files are read once, front to back, so mappings are opened with a
// sequential access hint.
//
//	m, err := mmap.Open("sources.npt")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2)/madvise(2) via golang.org/x/sys/unix; Windows uses
// CreateFileMapping/MapViewOfFile.
package mmap
