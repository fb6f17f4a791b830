// Package shm allocates anonymous shared memory and carves pixel
// buffers from it for presentation over the wl_shm protocol.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ResourceError indicates that shared memory could not be allocated
// or mapped. It is fatal to the window creation that needed the
// memory, not to the runtime.
type ResourceError struct {
	Op  string
	Err error
}

func (err *ResourceError) Error() string {
	return fmt.Sprintf("%v: %v", err.Op, err.Err)
}

func (err *ResourceError) Unwrap() error { return err.Err }

// Create allocates an anonymous memory-backed file of exactly size
// bytes.
func Create(name string, size int64) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, &ResourceError{Op: "create shm file", Err: err}
	}

	file := os.NewFile(uintptr(fd), name)
	if err := file.Truncate(size); err != nil {
		file.Close()
		return nil, &ResourceError{Op: "size shm file", Err: err}
	}

	return file, nil
}

// Mmap is a mapped region of a shared memory file.
type Mmap []byte

// MapShared maps size bytes of file into the process with the given
// protection flags.
func MapShared(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, &ResourceError{Op: "map shm file", Err: err}
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})
	if err == nil {
		err = cerr
	}
	if err != nil {
		return nil, &ResourceError{Op: "map shm file", Err: err}
	}

	return mmap, nil
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap)
}
