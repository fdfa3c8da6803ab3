package util

import (
	"log"
	"testing"
)

func NewTestingLogger(tb testing.TB) *CommitLogger {
	return &CommitLogger{
		Committer: func(p []byte) {
			tb.Log(string(p))
		},
		buf: nil,
	}
}

// RouteLogToTest sends the standard logger's output to tb until the test ends.
func RouteLogToTest(tb testing.TB) {
	w, flags := log.Writer(), log.Flags()
	l := NewTestingLogger(tb)
	log.SetOutput(l)
	log.SetFlags(log.Lmicroseconds)
	tb.Cleanup(func() {
		l.Commit()
		log.SetOutput(w)
		log.SetFlags(flags)
	})
}
