package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"dolphinmem/dolphin"
	"dolphinmem/dolphin/locate"
	"dolphinmem/util"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// include these transports:
import (
	_ "dolphinmem/dolphin/shm"
	_ "dolphinmem/dolphin/vm"
)

var (
	cfg       dolphin.Config
	transport string
	pidFlag   int
	logToFile bool
)

var rootCmd = &cobra.Command{
	Use:           "dolphinmem",
	Short:         "Read and write the emulated RAM of a running Dolphin process.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logToFile {
			path, err := util.OpenLogFile("dolphinmem")
			if err != nil {
				return fmt.Errorf("could not open log file '%s' for writing: %w", path, err)
			}
			log.Printf("logging to '%s'\n", path)
		}
		if transport != "" {
			cfg.Transport = dolphin.Kind(transport)
		}
		return nil
	},
}

func init() {
	// a missing .env file is fine:
	_ = godotenv.Load()
	cfg = dolphin.ConfigFromEnv()

	rootCmd.PersistentFlags().StringVarP(&transport, "transport", "t", "", "transport to use (shm or vm); defaults to DOLPHINMEM_TRANSPORT")
	rootCmd.PersistentFlags().IntVarP(&pidFlag, "pid", "p", 0, "emulator process id; located by name when zero")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log", false, "also log to a file in the temp dir")

	rootCmd.AddCommand(locateCmd, mapsCmd, readCmd, writeCmd, benchCmd)
}

func locator() dolphin.Locator {
	if pidFlag > 0 {
		return fixedPid(pidFlag)
	}
	return locate.New(cfg.ProcessNames, nil)
}

type fixedPid int

func (p fixedPid) Locate() (int, error) { return int(p), nil }

// attach establishes a session; an interrupt abandons the wait for the emulator.
func attach(cmd *cobra.Command) (*dolphin.Session, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return dolphin.Attach(ctx, locator(), cfg.Transport)
}

func parseAddress(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("address %q: %w", s, err)
	}
	if v < dolphin.BaseAddress {
		return 0, fmt.Errorf("address %#08x is below %#08x", v, dolphin.BaseAddress)
	}
	return uint32(v), nil
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			util.LogPanic(err)
			atexit.Exit(2)
		}
	}()
	atexit.Register(func() { _ = util.FlushLogger() })

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Println(err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
