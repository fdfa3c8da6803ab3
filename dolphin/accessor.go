package dolphin

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Accessor reads and writes big-endian values at emulated addresses through a Transport.
// Every method panics with a *PreconditionError before any I/O if addr < BaseAddress.
type Accessor struct {
	t Transport
}

func NewAccessor(t Transport) *Accessor {
	if t == nil {
		panic("dolphin: NewAccessor transport is nil")
	}
	return &Accessor{t: t}
}

func (a *Accessor) Transport() Transport { return a.t }

func (a *Accessor) ReadBytes(addr uint32, size int) ([]byte, error) {
	return a.t.Read(Offset(addr), size)
}

func (a *Accessor) WriteBytes(addr uint32, data []byte) error {
	return a.t.Write(Offset(addr), data)
}

func (a *Accessor) ReadU8(addr uint32) (v uint8, err error) {
	var b []byte
	if b, err = a.ReadBytes(addr, 1); err != nil {
		return
	}
	v = b[0]
	return
}

func (a *Accessor) WriteU8(addr uint32, v uint8) error {
	return a.WriteBytes(addr, []byte{v})
}

func (a *Accessor) ReadU16(addr uint32) (v uint16, err error) {
	var b []byte
	if b, err = a.ReadBytes(addr, 2); err != nil {
		return
	}
	v = binary.BigEndian.Uint16(b)
	return
}

func (a *Accessor) WriteU16(addr uint32, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return a.WriteBytes(addr, b[:])
}

func (a *Accessor) ReadU32(addr uint32) (v uint32, err error) {
	var b []byte
	if b, err = a.ReadBytes(addr, 4); err != nil {
		return
	}
	v = binary.BigEndian.Uint32(b)
	return
}

func (a *Accessor) WriteU32(addr uint32, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return a.WriteBytes(addr, b[:])
}

func (a *Accessor) ReadF32(addr uint32) (v float32, err error) {
	var u uint32
	if u, err = a.ReadU32(addr); err != nil {
		return
	}
	v = math.Float32frombits(u)
	return
}

func (a *Accessor) WriteF32(addr uint32, v float32) error {
	return a.WriteU32(addr, math.Float32bits(v))
}

// DirectTransport is a transport whose memory is mapped into this process. Once open, a
// bounds-checked transfer through it cannot fail.
type DirectTransport interface {
	Transport

	// Bytes returns the mapped region. It is shared with the emulator.
	Bytes() []byte
}

// Direct returns values without an error result. It is only constructed over a
// DirectTransport; a range error is a programming error and panics.
type Direct struct {
	a *Accessor
}

func NewDirect(t DirectTransport) *Direct {
	return &Direct{a: NewAccessor(t)}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Errorf("dolphin: direct access: %w", err))
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(fmt.Errorf("dolphin: direct access: %w", err))
	}
}

func (d *Direct) ReadBytes(addr uint32, size int) []byte { return must(d.a.ReadBytes(addr, size)) }
func (d *Direct) WriteBytes(addr uint32, data []byte)    { mustDo(d.a.WriteBytes(addr, data)) }
func (d *Direct) ReadU8(addr uint32) uint8               { return must(d.a.ReadU8(addr)) }
func (d *Direct) WriteU8(addr uint32, v uint8)           { mustDo(d.a.WriteU8(addr, v)) }
func (d *Direct) ReadU16(addr uint32) uint16             { return must(d.a.ReadU16(addr)) }
func (d *Direct) WriteU16(addr uint32, v uint16)         { mustDo(d.a.WriteU16(addr, v)) }
func (d *Direct) ReadU32(addr uint32) uint32             { return must(d.a.ReadU32(addr)) }
func (d *Direct) WriteU32(addr uint32, v uint32)         { mustDo(d.a.WriteU32(addr, v)) }
func (d *Direct) ReadF32(addr uint32) float32            { return must(d.a.ReadF32(addr)) }
func (d *Direct) WriteF32(addr uint32, v float32)        { mustDo(d.a.WriteF32(addr, v)) }
