package dolphin

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// Locator finds the process id of a running emulator.
type Locator interface {
	Locate() (pid int, err error)
}

// Session binds this process to one emulator process through one transport. A Session is
// never mutated after Attach returns; when the target exits its operations start failing
// with a *TerminalError.
type Session struct {
	id  xid.ID
	pid int
	t   Transport

	st     *sessionTransport
	acc    *Accessor
	closed atomic.Bool
	once   sync.Once
	err    error
}

// Attach locates the emulator and establishes a transport of the given kind to it. The
// shared-memory transport blocks until the emulator publishes its segment or ctx is done.
func Attach(ctx context.Context, locator Locator, kind Kind) (s *Session, err error) {
	var pid int
	if pid, err = locator.Locate(); err != nil {
		return
	}

	var t Transport
	if t, err = Open(ctx, kind, pid); err != nil {
		return nil, fmt.Errorf("dolphin: attach to pid %d via %s: %w", pid, kind, err)
	}

	s = NewSession(pid, t)
	log.Printf("dolphin: session %s: attached to pid %d via %s\n", s.id, pid, kind)
	return
}

// NewSession wraps an already established transport.
func NewSession(pid int, t Transport) *Session {
	s := &Session{
		id:  xid.New(),
		pid: pid,
		t:   t,
	}
	s.st = &sessionTransport{Transport: t, s: s}
	s.acc = NewAccessor(s.st)
	return s
}

func (s *Session) ID() string           { return s.id.String() }
func (s *Session) Pid() int             { return s.pid }
func (s *Session) Kind() Kind           { return s.t.Kind() }
func (s *Session) Transport() Transport { return s.t }

// Accessor returns the error-reporting typed accessor for the session.
func (s *Session) Accessor() *Accessor { return s.acc }

// AddressSpace returns the resolved map for transports that resolve one.
func (s *Session) AddressSpace() (m AddressSpaceMap, ok bool) {
	var as AddressSpacer
	if as, ok = s.t.(AddressSpacer); ok {
		m = as.AddressSpace()
	}
	return
}

// Direct returns the value-returning accessor. Only memory mapped into this process
// supports it. Once the session is closed every call panics with an error wrapping
// ErrSessionClosed.
func (s *Session) Direct() (*Direct, error) {
	dt, ok := s.t.(DirectTransport)
	if !ok {
		return nil, fmt.Errorf("dolphin: %s transport does not support direct access", s.t.Kind())
	}
	return NewDirect(&directSessionTransport{sessionTransport: s.st, dt: dt}), nil
}

// Close releases the transport. It is safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closed.Store(true)
		s.err = s.t.Close()
		log.Printf("dolphin: session %s: closed\n", s.id)
	})
	return s.err
}

type sessionTransport struct {
	Transport
	s *Session
}

func (t *sessionTransport) wrap(err error) error {
	if err != nil && t.Transport.IsTerminalError(err) {
		log.Printf("dolphin: session %s: pid %d: %v\n", t.s.id, t.s.pid, err)
		return &TerminalError{wrapped: err}
	}
	return err
}

func (t *sessionTransport) Read(offset uint32, size int) ([]byte, error) {
	if t.s.closed.Load() {
		return nil, ErrSessionClosed
	}
	b, err := t.Transport.Read(offset, size)
	return b, t.wrap(err)
}

func (t *sessionTransport) Write(offset uint32, data []byte) error {
	if t.s.closed.Load() {
		return ErrSessionClosed
	}
	return t.wrap(t.Transport.Write(offset, data))
}

type directSessionTransport struct {
	*sessionTransport
	dt DirectTransport
}

func (t *directSessionTransport) Bytes() []byte {
	if t.s.closed.Load() {
		return nil
	}
	return t.dt.Bytes()
}
