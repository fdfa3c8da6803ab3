//go:build unix

package shm

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dolphinmem/dolphin"
	"dolphinmem/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPid = 4321

func createSegment(t *testing.T, dir string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, SegmentName(testPid))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func openTest(t *testing.T, size int64) *Transport {
	t.Helper()
	util.RouteLogToTest(t)

	dir := t.TempDir()
	createSegment(t, dir, size)
	tr, err := Open(context.Background(), testPid, Options{Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestSegmentName(t *testing.T) {
	assert.Equal(t, "dolphin-emu.4321", SegmentName(4321))
}

func TestOpen_Existing(t *testing.T) {
	tr := openTest(t, dolphin.MEM1Size)
	assert.Equal(t, dolphin.KindSharedMemory, tr.Kind())
	assert.Equal(t, dolphin.MEM1Size, tr.Extent())
	assert.False(t, tr.IsTerminalError(os.ErrClosed))
}

func TestOpen_WaitsForSegment(t *testing.T) {
	util.RouteLogToTest(t)
	dir := t.TempDir()

	go func() {
		time.Sleep(20 * time.Millisecond)
		path := filepath.Join(dir, SegmentName(testPid))
		f, err := os.Create(path)
		if err != nil {
			return
		}
		// sized in a second step, like the emulator does:
		time.Sleep(5 * time.Millisecond)
		_ = f.Truncate(0x1000)
		_ = f.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := Open(ctx, testPid, Options{Dir: dir, Poll: time.Millisecond})
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, 0x1000, tr.Extent())
}

func TestOpen_Cancelled(t *testing.T) {
	util.RouteLogToTest(t)

	start := time.Now()
	_, err := Open(context.Background(), testPid, Options{Dir: t.TempDir(), Timeout: 30 * time.Millisecond})
	assert.ErrorIs(t, err, dolphin.ErrNotFound)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTransport_SharedWithFile(t *testing.T) {
	util.RouteLogToTest(t)
	dir := t.TempDir()
	path := createSegment(t, dir, 0x1000)

	tr, err := Open(context.Background(), testPid, Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, tr.Write(0x10, []byte("GMS")))
	require.NoError(t, tr.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("GMS"), contents[0x10:0x13])
}

func TestTransport_CloseOnce(t *testing.T) {
	tr := openTest(t, 0x1000)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err := tr.Read(0, 4)
	assert.ErrorIs(t, err, dolphin.ErrOutOfRange)
}

func TestRegion_OutOfRange(t *testing.T) {
	// the region is a window into a larger buffer; nothing outside it may leak:
	backing := make([]byte, 0x30)
	for i := range backing {
		backing[i] = 0xEE
	}
	window := backing[0x10:0x20:0x20]
	for i := range window {
		window[i] = 0
	}
	r := NewRegion(window)

	tests := []struct {
		name   string
		offset uint32
		size   int
	}{
		{"past end", 0x0E, 4},
		{"starting at end", 0x10, 1},
		{"far past end", 0xFFFFFFFF, 4},
		{"negative size", 0x0D, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := r.Read(tt.offset, tt.size)
			assert.ErrorIs(t, err, dolphin.ErrOutOfRange)
			assert.Nil(t, b)

			err = r.Write(tt.offset, []byte{1, 2, 3, 4})
			assert.ErrorIs(t, err, dolphin.ErrOutOfRange)
		})
	}

	for i, v := range backing[:0x10] {
		assert.Equal(t, byte(0xEE), v, "byte %#x", i)
	}
	for i, v := range backing[0x20:] {
		assert.Equal(t, byte(0xEE), v, "byte %#x", 0x20+i)
	}

	b, err := r.Read(0x0C, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)
}

func TestDirect_RoundTrip(t *testing.T) {
	tr := openTest(t, dolphin.MEM1Size)
	s := dolphin.NewSession(testPid, tr)
	d, err := s.Direct()
	require.NoError(t, err)

	for _, v := range []uint32{0, 1, 0xDEADBEEF, math.MaxUint32} {
		d.WriteU32(0x80000000, v)
		assert.Equal(t, v, d.ReadU32(0x80000000))
	}
	d.WriteU32(0x80000100, 0x01020304)
	assert.Equal(t, []byte{1, 2, 3, 4}, tr.Bytes()[0x100:0x104])

	for _, f := range []float32{0, -1.5, 3.14159, math.MaxFloat32, math.SmallestNonzeroFloat32, float32(math.Inf(-1))} {
		d.WriteF32(0x81000000, f)
		assert.Equal(t, math.Float32bits(f), math.Float32bits(d.ReadF32(0x81000000)))
	}

	assert.Panics(t, func() { d.ReadU32(0x80000000 + dolphin.MEM1Size - 2) })
	assert.Panics(t, func() { d.ReadU32(0x7FFFFFFF) })

	require.NoError(t, s.Close())
	func() {
		defer func() {
			err, ok := recover().(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, dolphin.ErrSessionClosed)
		}()
		d.ReadU32(0x80000000)
	}()
}

func TestAccessor_RoundTrip(t *testing.T) {
	tr := openTest(t, dolphin.MEM1Size)
	s := dolphin.NewSession(testPid, tr)
	a := s.Accessor()

	require.NoError(t, a.WriteU32(0x80003000, 0xCAFEBABE))
	v, err := a.ReadU32(0x80003000)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)

	_, ok := s.AddressSpace()
	assert.False(t, ok)

	require.NoError(t, s.Close())
	_, err = a.ReadU32(0x80003000)
	assert.ErrorIs(t, err, dolphin.ErrSessionClosed)
}

func TestDriver_Open(t *testing.T) {
	util.RouteLogToTest(t)
	dir := t.TempDir()
	createSegment(t, dir, 0x2000)

	tr, err := NewDriver(Options{Dir: dir}).Open(context.Background(), testPid)
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, 0x2000, tr.Extent())
}

func TestOpen_DefaultDir(t *testing.T) {
	util.RouteLogToTest(t)

	// a pid no emulator on this host is using:
	pid := os.Getpid()
	path := filepath.Join(DefaultDir, SegmentName(pid))
	f, err := os.Create(path)
	if err != nil {
		t.Skipf("%s not writable: %v", DefaultDir, err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	require.NoError(t, f.Truncate(0x1000))
	require.NoError(t, f.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tr, err := Open(ctx, pid, Options{})
	require.NoError(t, err)
	defer tr.Close()
	assert.Equal(t, path, tr.Path())
	assert.Equal(t, 0x1000, tr.Extent())

	tr2, err := NewDriver(Options{}).Open(ctx, pid)
	require.NoError(t, err)
	defer tr2.Close()
	assert.Equal(t, 0x1000, tr2.Extent())
}
