//go:build linux

// Package vm reaches emulated RAM by copying directly to and from the emulator's address
// space with process_vm_readv(2) and process_vm_writev(2).
package vm

import (
	"errors"
	"fmt"

	"dolphinmem/dolphin"
	"dolphinmem/dolphin/procmaps"

	"golang.org/x/sys/unix"
)

type transferFunc func(pid int, localIov []unix.Iovec, remoteIov []unix.RemoteIovec, flags uint) (n int, err error)

// Transport holds only the target pid and its resolved address space; no descriptor stays
// open between calls.
type Transport struct {
	pid    int
	as     dolphin.AddressSpaceMap
	extent int

	readv  transferFunc
	writev transferFunc
}

// New returns a transport addressing MEM1 of pid at as.MEM1Base.
func New(pid int, as dolphin.AddressSpaceMap) *Transport {
	return &Transport{
		pid:    pid,
		as:     as,
		extent: dolphin.MEM1Size,
		readv:  unix.ProcessVMReadv,
		writev: unix.ProcessVMWritev,
	}
}

// Open resolves the address space of pid from src and returns a transport for it.
func Open(pid int, src procmaps.Source) (t *Transport, err error) {
	var as dolphin.AddressSpaceMap
	if as, err = procmaps.ResolvePid(pid, src); err != nil {
		return
	}
	return New(pid, as), nil
}

func (t *Transport) Kind() dolphin.Kind { return dolphin.KindForeignMemory }

func (t *Transport) Extent() int { return t.extent }

func (t *Transport) Pid() int { return t.pid }

func (t *Transport) AddressSpace() dolphin.AddressSpaceMap { return t.as }

func (t *Transport) Read(offset uint32, size int) ([]byte, error) {
	if err := dolphin.CheckRange(offset, size, t.extent); err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}

	if err := t.transfer(t.readv, buf, offset, false); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *Transport) Write(offset uint32, data []byte) error {
	if err := dolphin.CheckRange(offset, len(data), t.extent); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	return t.transfer(t.writev, data, offset, true)
}

// transfer issues exactly one syscall with one local and one remote vector. Anything short
// of the full length is a failure.
func (t *Transport) transfer(fn transferFunc, buf []byte, offset uint32, write bool) error {
	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{
		Base: t.as.MEM1Base + uintptr(offset),
		Len:  len(buf),
	}}

	n, err := fn(t.pid, local, remote, 0)
	if n < 0 {
		n = 0
	}
	if err != nil || n != len(buf) {
		return &dolphin.TransferError{Write: write, Requested: len(buf), Moved: n, Err: err}
	}
	return nil
}

// IsTerminalError reports whether the target process no longer exists.
func (t *Transport) IsTerminalError(err error) bool {
	return errors.Is(err, unix.ESRCH)
}

func (t *Transport) Close() error {
	return nil
}

func (t *Transport) String() string {
	return fmt.Sprintf("vm pid %d %s", t.pid, t.as)
}
