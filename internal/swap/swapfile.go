// Package swap implements the per-process swap file: fixed page-sized
// slots on disk holding the contents of non-resident pages. It is grounded on
// biscuit's ufs.ahci_disk_t, a disk "driver" that simulates a block
// device with an *os.File and Seek+Read/Write, generalized from
// fixed-size filesystem blocks to page-sized swap slots.
package swap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"sv39vm/internal/mem"
)

// File is a process's swap file: a plain file on disk, page-aligned,
// exclusively owned by the process that opened it.
type File struct {
	f *os.File
}

// Open creates (or truncates) the swap file at path and takes an
// advisory exclusive lock on it for the lifetime of the returned File,
// enforcing single-owner access the way biscuit's single in-process
// ahci_disk_t enforces it implicitly by never being shared.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("swap: open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("swap: lock %s: %w", path, err)
	}
	return &File{f: f}, nil
}

// Write writes exactly one page's worth of buf to offset. Failure to
// write during eviction is fatal to the process, so this method's error
// is expected to be treated as unrecoverable by the caller, never
// retried.
func (s *File) Write(buf []byte, offset int) error {
	if len(buf) != mem.PageSize {
		panic("swap: write must be exactly one page")
	}
	n, err := s.f.WriteAt(buf, int64(offset))
	if err != nil {
		return fmt.Errorf("swap: write at %d: %w", offset, err)
	}
	if n != mem.PageSize {
		return fmt.Errorf("swap: short write at %d: %d/%d bytes", offset, n, mem.PageSize)
	}
	return s.f.Sync()
}

// Read reads exactly one page's worth of data from offset into buf.
func (s *File) Read(buf []byte, offset int) error {
	if len(buf) != mem.PageSize {
		panic("swap: read must be exactly one page")
	}
	n, err := s.f.ReadAt(buf, int64(offset))
	if err != nil {
		return fmt.Errorf("swap: read at %d: %w", offset, err)
	}
	if n != mem.PageSize {
		return fmt.Errorf("swap: short read at %d: %d/%d bytes", offset, n, mem.PageSize)
	}
	return nil
}

// CopyFrom overwrites this swap file's entire contents with a byte-for-
// byte copy of src's. Used by fork to give the
// child a swap file whose on-disk contents match the parent's at every
// offset still referenced by the child's PageMeta table.
func (s *File) CopyFrom(src *File) error {
	if _, err := src.f.Seek(0, 0); err != nil {
		return fmt.Errorf("swap: seek source: %w", err)
	}
	if _, err := s.f.Seek(0, 0); err != nil {
		return fmt.Errorf("swap: seek dest: %w", err)
	}
	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("swap: truncate dest: %w", err)
	}
	buf := make([]byte, mem.PageSize)
	for {
		n, err := src.f.Read(buf)
		if n > 0 {
			if _, werr := s.f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("swap: copy write: %w", werr)
			}
		}
		if err != nil {
			break
		}
	}
	return s.f.Sync()
}

// Close releases the swap file's lock and closes the underlying file.
// Process exit frees the swap file and discards the paging state
// wholesale.
func (s *File) Close() error {
	unix.Flock(int(s.f.Fd()), unix.LOCK_UN)
	return s.f.Close()
}

// Path returns the path of the underlying file, for callers that need
// to open a second handle onto the same swap file. Fork does not use it:
// it copies through CopyFrom.
func (s *File) Path() string {
	return s.f.Name()
}
