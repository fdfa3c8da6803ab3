package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"dolphinmem/dolphin"
	"dolphinmem/dolphin/locate"
	"dolphinmem/dolphin/procmaps"

	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "List running emulator processes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		matches, err := locate.New(cfg.ProcessNames, nil).LocateAll()
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", m.Pid, m.Name)
		}
		return nil
	},
}

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Show where MEM1 and MEM2 are mapped in the emulator process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := locator().Locate()
		if err != nil {
			return err
		}
		m, err := procmaps.ResolvePid(pid, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pid %d: %s\n", pid, m)
		return nil
	},
}

var valueType string
var byteCount int

var readCmd = &cobra.Command{
	Use:   "read ADDRESS",
	Short: "Read a big-endian value at an emulated address.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}

		s, err := attach(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		a := s.Accessor()
		out := cmd.OutOrStdout()
		switch valueType {
		case "u8":
			v, err := a.ReadU8(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%#02x\n", v)
		case "u16":
			v, err := a.ReadU16(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%#04x\n", v)
		case "u32":
			v, err := a.ReadU32(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%#08x\n", v)
		case "f32":
			v, err := a.ReadF32(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%g\n", v)
		case "bytes":
			b, err := a.ReadBytes(addr, byteCount)
			if err != nil {
				return err
			}
			fmt.Fprint(out, hex.Dump(b))
		default:
			return fmt.Errorf("unknown type %q", valueType)
		}
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write ADDRESS VALUE",
	Short: "Write a big-endian value at an emulated address.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}

		write, err := encodeWrite(valueType, args[1])
		if err != nil {
			return err
		}

		s, err := attach(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		return write(s.Accessor(), addr)
	},
}

func encodeWrite(kind, value string) (func(a *dolphin.Accessor, addr uint32) error, error) {
	switch kind {
	case "u8", "u16", "u32":
		bits, _ := strconv.Atoi(kind[1:])
		v, err := strconv.ParseUint(value, 0, bits)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", value, err)
		}
		return func(a *dolphin.Accessor, addr uint32) error {
			switch bits {
			case 8:
				return a.WriteU8(addr, uint8(v))
			case 16:
				return a.WriteU16(addr, uint16(v))
			}
			return a.WriteU32(addr, uint32(v))
		}, nil
	case "f32":
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", value, err)
		}
		return func(a *dolphin.Accessor, addr uint32) error {
			return a.WriteF32(addr, float32(v))
		}, nil
	case "bytes":
		b, err := hex.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", value, err)
		}
		return func(a *dolphin.Accessor, addr uint32) error {
			return a.WriteBytes(addr, b)
		}, nil
	}
	return nil, fmt.Errorf("unknown type %q", kind)
}

func init() {
	for _, c := range []*cobra.Command{readCmd, writeCmd} {
		c.Flags().StringVar(&valueType, "type", "u32", "value type: u8, u16, u32, f32 or bytes")
	}
	readCmd.Flags().IntVar(&byteCount, "size", 16, "number of bytes to read with --type bytes")
}
