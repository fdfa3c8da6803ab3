package dolphin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const (
	// BaseAddress is the start of the console's cached-RAM window. All emulated addresses handed to
	// this package lie at or above it.
	BaseAddress = 0x80000000

	MEM1Size   = 0x2000000
	MEM2Size   = 0x4000000
	MEM2Offset = 0x2000000
)

// Kind names a transport; it is also the name its driver registers under.
type Kind string

const (
	KindSharedMemory  Kind = "shm"
	KindForeignMemory Kind = "vm"
)

// Transport moves bytes between this process and the emulated RAM of one target process.
// Offsets are relative to the start of MEM1 as seen by the transport.
type Transport interface {
	Kind() Kind

	// Extent is the number of bytes addressable from offset 0.
	Extent() int

	// Read copies size bytes starting at offset. No partial data is ever returned.
	Read(offset uint32, size int) ([]byte, error)

	// Write copies data to offset. A short write is a failure.
	Write(offset uint32, data []byte) error

	// IsTerminalError reports whether err means the target process is gone.
	IsTerminalError(err error) bool

	Close() error
}

// AddressSpacer is implemented by transports that resolved the target's address space.
type AddressSpacer interface {
	AddressSpace() AddressSpaceMap
}

// AddressSpaceMap holds the host virtual addresses that back emulated RAM in the target process.
type AddressSpaceMap struct {
	MEM1Base   uintptr
	MEM2Base   uintptr
	MEM2Exists bool
}

func (m AddressSpaceMap) String() string {
	if !m.MEM2Exists {
		return fmt.Sprintf("mem1=%#x", m.MEM1Base)
	}
	return fmt.Sprintf("mem1=%#x mem2=%#x", m.MEM1Base, m.MEM2Base)
}

type Driver interface {
	// Open establishes the transport to the process. It may block until the emulator has
	// published its memory or ctx is done.
	Open(ctx context.Context, pid int) (Transport, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[Kind]Driver)
)

// Register makes a transport driver available by the provided kind.
// If Register is called twice with the same kind or if driver is nil,
// it panics.
func Register(kind Kind, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("dolphin: Register driver is nil")
	}
	if _, dup := drivers[kind]; dup {
		panic("dolphin: Register called twice for driver " + string(kind))
	}
	drivers[kind] = driver
}

func unregisterAllDrivers() {
	driversMu.Lock()
	defer driversMu.Unlock()
	// For tests.
	drivers = make(map[Kind]Driver)
}

// Drivers returns a sorted list of the registered transport kinds.
func Drivers() []Kind {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]Kind, 0, len(drivers))
	for kind := range drivers {
		list = append(list, kind)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// Open establishes a transport of the given kind to pid.
func Open(ctx context.Context, kind Kind, pid int) (Transport, error) {
	driversMu.RLock()
	driveri, ok := drivers[kind]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dolphin: unknown transport %q (forgotten import?)", kind)
	}

	return driveri.Open(ctx, pid)
}

// Offset translates an emulated address into a transport-relative offset. It panics with a
// *PreconditionError when addr lies below BaseAddress.
func Offset(addr uint32) uint32 {
	if addr < BaseAddress {
		panic(&PreconditionError{Address: addr})
	}
	return addr - BaseAddress
}

// CheckRange validates a (offset, size) pair against an extent without overflowing.
func CheckRange(offset uint32, size int, extent int) error {
	if size < 0 || uint64(offset)+uint64(size) > uint64(extent) {
		return &RangeError{Offset: offset, Size: size, Extent: extent}
	}
	return nil
}
