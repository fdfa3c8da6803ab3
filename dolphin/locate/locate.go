package locate

import (
	"fmt"
	"log"
	"sort"

	"dolphinmem/dolphin"

	"github.com/shirou/gopsutil/process"
)

// ProcessTable looks up running processes by executable name.
type ProcessTable interface {
	// PidsByName returns the ids of running processes named name, or an error if there are none.
	PidsByName(name string) ([]int, error)
}

type Match struct {
	Name string
	Pid  int
}

type Locator struct {
	names []string
	table ProcessTable
}

// New returns a Locator probing names in order. A nil table uses the host process table.
func New(names []string, table ProcessTable) *Locator {
	if table == nil {
		table = HostProcessTable{}
	}
	return &Locator{names: names, table: table}
}

// LocateAll returns every running process matching one of the known names, ordered by pid.
// A failed lookup for one name only means that variant is not running.
func (l *Locator) LocateAll() (matches []Match, err error) {
	seen := make(map[int]bool)
	for _, name := range l.names {
		pids, e := l.table.PidsByName(name)
		if e != nil {
			continue
		}
		for _, pid := range pids {
			if seen[pid] {
				continue
			}
			seen[pid] = true
			matches = append(matches, Match{Name: name, Pid: pid})
		}
	}

	if len(matches) == 0 {
		err = fmt.Errorf("locate: none of %v running: %w", l.names, dolphin.ErrNotFound)
		return
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Pid < matches[j].Pid })
	return
}

// Locate returns the lowest pid among all matches.
func (l *Locator) Locate() (pid int, err error) {
	var matches []Match
	if matches, err = l.LocateAll(); err != nil {
		return -1, err
	}
	if len(matches) > 1 {
		log.Printf("locate: %d emulator processes running %v; using pid %d\n", len(matches), matches, matches[0].Pid)
	}
	return matches[0].Pid, nil
}

// HostProcessTable enumerates the processes of this host.
type HostProcessTable struct{}

func (HostProcessTable) PidsByName(name string) (pids []int, err error) {
	var procs []*process.Process
	if procs, err = process.Processes(); err != nil {
		return
	}

	for _, p := range procs {
		// processes may exit while we enumerate:
		n, e := p.Name()
		if e != nil {
			continue
		}
		if n == name {
			pids = append(pids, int(p.Pid))
		}
	}

	if len(pids) == 0 {
		err = fmt.Errorf("locate: no process named %q", name)
	}
	return
}
