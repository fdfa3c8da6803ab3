// Package procmaps reads a process's memory-mapping table and finds the mappings that back
// the emulator's MEM1 and MEM2.
package procmaps

import (
	"fmt"
	"strings"

	"dolphinmem/dolphin"

	"github.com/prometheus/procfs"
)

// DefaultRoot is where the host's procfs is mounted.
const DefaultRoot = procfs.DefaultMountPoint

// Markers are the path fragments of the shared-memory files the emulator maps its RAM from.
var Markers = []string{"/dev/shm/dolphinmem", "/dev/shm/dolphin-emu"}

type Record struct {
	Start  uintptr
	End    uintptr
	Offset uint64
	Path   string
}

func (r Record) Size() uint64 {
	if r.End < r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}

func (r Record) isEmulatorMemory() bool {
	for _, m := range Markers {
		if strings.Contains(r.Path, m) {
			return true
		}
	}
	return false
}

// Source returns the mapping table of a process in address order.
type Source func(pid int) ([]Record, error)

// ProcSource reads <root>/<pid>/maps.
func ProcSource(root string) Source {
	return func(pid int) (records []Record, err error) {
		var fs procfs.FS
		if fs, err = procfs.NewFS(root); err != nil {
			return
		}
		var p procfs.Proc
		if p, err = fs.Proc(pid); err != nil {
			return
		}
		var maps []*procfs.ProcMap
		if maps, err = p.ProcMaps(); err != nil {
			return
		}

		records = make([]Record, 0, len(maps))
		for _, m := range maps {
			records = append(records, Record{
				Start:  m.StartAddr,
				End:    m.EndAddr,
				Offset: uint64(m.Offset),
				Path:   m.Pathname,
			})
		}
		return
	}
}

// Resolve scans records in order and classifies emulator mappings: MEM1 is exactly MEM1Size
// long at file offset 0, MEM2 is exactly MEM2Size long at file offset MEM2Offset. Mappings
// that match neither are skipped without disturbing what was found so far; a later
// qualifying mapping replaces an earlier one.
func Resolve(records []Record) (m dolphin.AddressSpaceMap, err error) {
	mem1Found := false
	for _, r := range records {
		if !r.isEmulatorMemory() {
			continue
		}

		switch {
		case r.Size() == dolphin.MEM1Size && r.Offset == 0:
			m.MEM1Base = r.Start
			mem1Found = true
		case r.Size() == dolphin.MEM2Size && r.Offset == dolphin.MEM2Offset:
			m.MEM2Base = r.Start
			m.MEM2Exists = true
		}
	}

	if !mem1Found {
		err = fmt.Errorf("procmaps: no MEM1 mapping: %w", dolphin.ErrNotFound)
	}
	return
}

// ResolvePid reads the mapping table of pid from src and resolves it. A table that cannot be
// read, in full, counts as not found; the process may be starting or exiting.
func ResolvePid(pid int, src Source) (m dolphin.AddressSpaceMap, err error) {
	if src == nil {
		src = ProcSource(DefaultRoot)
	}

	var records []Record
	if records, err = src(pid); err != nil {
		err = fmt.Errorf("procmaps: pid %d: %w: %w", pid, dolphin.ErrNotFound, err)
		return
	}

	return Resolve(records)
}
