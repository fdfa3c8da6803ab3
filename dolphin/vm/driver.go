//go:build linux

package vm

import (
	"context"
	"log"

	"dolphinmem/dolphin"
	"dolphinmem/dolphin/procmaps"
	"dolphinmem/util/env"
)

type Driver struct {
	src procmaps.Source
}

func NewDriver(src procmaps.Source) *Driver {
	return &Driver{src: src}
}

// Open resolves the target's address space once; a target that remaps its memory needs a
// new transport.
func (d *Driver) Open(ctx context.Context, pid int) (dolphin.Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := Open(pid, d.src)
	if err != nil {
		return nil, err
	}
	log.Printf("vm: pid %d: %s\n", pid, t.as)
	return t, nil
}

func init() {
	if env.IsTruthy(env.GetOrDefault("DOLPHINMEM_VM_DISABLE", "0")) {
		log.Printf("disabling vm transport\n")
		return
	}
	dolphin.Register(dolphin.KindForeignMemory, NewDriver(procmaps.ProcSource(procmaps.DefaultRoot)))
}
