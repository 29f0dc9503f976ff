package state

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/llxisdsh/pb"
)

// ============================================================================
// Cell word
// ============================================================================

// CellWidth is the size of the word an AtomicCell value is copied into.
const CellWidth = unsafe.Sizeof(uint64(0))

// ErrCellType is returned for types that cannot live in a cell word.
var ErrCellType = errors.New("type cannot be stored in an atomic cell")

// cellTypes caches the CheckCell verdict per type, so that every encode can
// afford the check.
var cellTypes = pb.NewMapOf[reflect.Type, error]()

// CheckCell reports why t cannot live in a cell word, or nil if it can. A
// cell value must fit in CellWidth bytes, need no stricter alignment, and
// hold no pointers, since the word is not scanned by the garbage collector.
func CheckCell(t reflect.Type) error {
	if err, ok := cellTypes.Load(t); ok {
		return err
	}
	err := checkCell(t)
	cellTypes.Store(t, err)
	return err
}

func checkCell(t reflect.Type) error {
	switch {
	case t.Size() > CellWidth:
		return fmt.Errorf("%w: %s is wider than 8 bytes", ErrCellType, t)
	case uintptr(t.Align()) > CellWidth:
		return fmt.Errorf("%w: %s needs more than 8-byte alignment", ErrCellType, t)
	case hasPointers(t):
		return fmt.Errorf("%w: %s contains pointers", ErrCellType, t)
	}
	return nil
}

// MustCell panics if T cannot live in a cell word.
func MustCell[T any]() {
	if err := CheckCell(reflect.TypeFor[T]()); err != nil {
		panic("spinx: AtomicCell: " + err.Error())
	}
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// EncodeCell copies the bytes of v into the low bytes of a zeroed word.
// Bytes past the size of T, and any padding inside T, are part of the word
// and take part in comparisons. It panics if T cannot live in a cell word,
// so a pointer never reaches a word the garbage collector does not scan.
func EncodeCell[T any](v T) uint64 {
	MustCell[T]()
	var u uint64
	*(*T)(unsafe.Pointer(&u)) = v
	return u
}

// DecodeCell is the inverse of EncodeCell.
//
//go:nosplit
func DecodeCell[T any](u uint64) T {
	return *(*T)(unsafe.Pointer(&u))
}
