//go:build unix

// Package shm reaches emulated RAM through the POSIX shared-memory segment the emulator
// publishes as "dolphin-emu.<pid>".
package shm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"dolphinmem/dolphin"

	"golang.org/x/sys/unix"
)

const (
	SegmentPrefix = "dolphin-emu."

	DefaultDir = "/dev/shm"
)

var errNotReady = errors.New("shm: segment not ready")

func SegmentName(pid int) string {
	return SegmentPrefix + strconv.Itoa(pid)
}

type Options struct {
	// Dir is where named segments live; /dev/shm on Linux.
	Dir string
	// Poll is the interval between checks for the segment.
	Poll time.Duration
	// Timeout bounds the wait in addition to the caller's context; zero means no bound.
	Timeout time.Duration
}

// Transport owns one mapping of the emulator's segment.
type Transport struct {
	*Region

	path string
	once sync.Once
	err  error
}

// Open maps the segment of pid, waiting until the emulator creates it or ctx is done.
func Open(ctx context.Context, pid int, opts Options) (t *Transport, err error) {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Poll <= 0 {
		opts.Poll = time.Millisecond
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	path := filepath.Join(opts.Dir, SegmentName(pid))

	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()

	waiting := false
	for {
		t, err = openSegment(path)
		if err == nil {
			log.Printf("shm: mapped %q (%#x bytes)\n", path, t.Size())
			return
		}
		if !errors.Is(err, unix.ENOENT) && !errors.Is(err, errNotReady) {
			return nil, err
		}

		if !waiting {
			log.Printf("shm: waiting for segment %q\n", path)
			waiting = true
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("shm: segment %q: %w: %w", path, dolphin.ErrNotFound, ctx.Err())
		case <-ticker.C:
		}
	}
}

func openSegment(path string) (t *Transport, err error) {
	var fd int
	if fd, err = unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0); err != nil {
		return nil, fmt.Errorf("shm: open %q: %w", path, err)
	}
	// the mapping outlives the descriptor:
	defer unix.Close(fd)

	var st unix.Stat_t
	if err = unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("shm: fstat %q: %w", path, err)
	}
	// created but not yet sized by the emulator:
	if st.Size <= 0 {
		return nil, errNotReady
	}

	var data []byte
	data, err = unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap %q: %w", path, err)
	}

	return &Transport{Region: NewRegion(data), path: path}, nil
}

func (t *Transport) Kind() dolphin.Kind { return dolphin.KindSharedMemory }

func (t *Transport) Extent() int { return t.Size() }

func (t *Transport) Path() string { return t.path }

// IsTerminalError is always false: the mapping stays valid after the emulator exits.
func (t *Transport) IsTerminalError(err error) bool {
	return false
}

// Close unmaps the segment. Only the first call has an effect.
func (t *Transport) Close() error {
	t.once.Do(func() {
		data := t.Region.data
		t.Region = NewRegion(nil)
		if err := unix.Munmap(data); err != nil {
			t.err = fmt.Errorf("shm: munmap %q: %w", t.path, err)
		}
	})
	return t.err
}
