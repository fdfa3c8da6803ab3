package dolphin

import (
	"strings"

	"dolphinmem/util/env"
)

// DefaultProcessNames lists the emulator executables in the order they are probed.
var DefaultProcessNames = []string{"dolphin-emu", "dolphin-emu-qt2", "dolphin-emu-wx"}

type Config struct {
	Transport    Kind
	ProcessNames []string
}

// ConfigFromEnv reads DOLPHINMEM_TRANSPORT and DOLPHINMEM_PROCESS_NAMES. When no transport is
// named the foreign-memory transport is preferred if it is registered.
func ConfigFromEnv() Config {
	c := Config{
		Transport:    Kind(env.GetOrDefault("DOLPHINMEM_TRANSPORT", "")),
		ProcessNames: DefaultProcessNames,
	}

	if c.Transport == "" {
		c.Transport = KindSharedMemory
		for _, k := range Drivers() {
			if k == KindForeignMemory {
				c.Transport = k
			}
		}
	}

	// comma-delimited list of executable names:
	if names := env.GetOrDefault("DOLPHINMEM_PROCESS_NAMES", ""); names != "" {
		c.ProcessNames = c.ProcessNames[:0:0]
		for _, name := range strings.Split(names, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.ProcessNames = append(c.ProcessNames, name)
			}
		}
	}

	return c
}
