//go:build unix

package shm

import (
	"context"
	"log"
	"time"

	"dolphinmem/dolphin"
	"dolphinmem/util/env"
)

type Driver struct {
	opts    Options
	fromEnv bool
}

func NewDriver(opts Options) *Driver {
	return &Driver{opts: opts}
}

func (d *Driver) Open(ctx context.Context, pid int) (dolphin.Transport, error) {
	opts := d.opts
	if d.fromEnv {
		// read late so a .env file loaded by the caller applies:
		opts = OptionsFromEnv()
	}

	t, err := Open(ctx, pid, opts)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func OptionsFromEnv() Options {
	return Options{
		Dir:     env.GetOrDefault("DOLPHINMEM_SHM_DIR", DefaultDir),
		Poll:    env.GetDurationOrDefault("DOLPHINMEM_SHM_POLL", time.Millisecond),
		Timeout: env.GetDurationOrDefault("DOLPHINMEM_SHM_TIMEOUT", 0),
	}
}

func init() {
	if env.IsTruthy(env.GetOrDefault("DOLPHINMEM_SHM_DISABLE", "0")) {
		log.Printf("disabling shm transport\n")
		return
	}
	dolphin.Register(dolphin.KindSharedMemory, &Driver{fromEnv: true})
}
