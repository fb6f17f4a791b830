// Package bin converts 32-bit protocol words to and from their
// host-byte-order wire representation.
package bin

import (
	"io"
	"unsafe"
)

// Word is the set of types that occupy a single 32-bit word on the
// wire.
type Word interface {
	~int32 | ~uint32
}

func Bytes[T Word](v T) [4]byte {
	return *(*[4]byte)(unsafe.Pointer(&v))
}

func Value[T Word](data [4]byte) T {
	return *(*T)(unsafe.Pointer(&data))
}

// Append appends the wire representation of v to dst.
func Append[T Word](dst []byte, v T) []byte {
	b := Bytes(v)
	return append(dst, b[:]...)
}

func Read[T Word](r io.Reader) (T, error) {
	var data [4]byte
	_, err := io.ReadFull(r, data[:])
	if err != nil {
		return 0, err
	}
	return Value[T](data), nil
}

func Write[T Word](w io.Writer, v T) error {
	data := Bytes(v)
	n, err := w.Write(data[:])
	if (err == nil) && (n < len(data)) {
		return io.ErrShortWrite
	}
	return err
}
