package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/moffa90/go-meepromer/eeprom"
	"github.com/moffa90/go-meepromer/internal/cliconfig"
	"github.com/moffa90/go-meepromer/internal/logadapter"
	"github.com/moffa90/go-meepromer/link"
)

const longHelp = `Meepromer command line interface.

Writes a file to the EEPROM on a Meepromer board, or dumps the EEPROM to a
file. Sizes are in kilobytes: the transfer covers [offset, bytes).

Settings are read from $HOME/.meepromer/config.toml when present; flags
given on the command line take precedence.`

var exampleUsage = strings.TrimSpace(`
  meepromer -w -f image.bin -c COM3
  meepromer -d -f backup.bin -c /dev/ttyUSB0 -b 32
  meepromer ports
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logadapter.New(logadapter.Options{})
	root := newRootCmd(ctx, os.Stderr)

	if err := root.Execute(); err != nil {
		reportError(log, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(ctx context.Context, console io.Writer) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath     string
		write, dump bool
	)

	root := &cobra.Command{
		Use:           "meepromer",
		Short:         "Write or dump the EEPROM of a Meepromer board over serial",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			switch {
			case write:
				cfg.Mode = cliconfig.ModeWrite
			case dump:
				cfg.Mode = cliconfig.ModeDump
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logadapter.New(logadapter.Options{
				Verbose:    cfg.Verbose,
				Console:    console,
				File:       cfg.LogFile,
				MaxSizeMB:  10,
				MaxBackups: 3,
				SessionID:  uuid.NewString(),
			})
			defer log.Close()

			log.Debug("configuration",
				"mode", cfg.Mode,
				"file", cfg.File,
				"port", cfg.Port,
				"baud", cfg.Baud,
				"driver", cfg.Driver,
				"count", cfg.Count,
				"offset", cfg.Offset,
			)

			err := link.Run(ctx, cfg.LinkConfig(), func(l *link.Link) error {
				prog := eeprom.New(l, append(cfg.ProgrammerOptions(),
					eeprom.WithLogger(log),
					eeprom.WithProgressCallback(progressLogger(log)),
				)...)
				_, err := runTransfer(ctx, prog, cfg)
				return err
			}, link.WithLogger(log))
			if err != nil {
				return logFailure(log, err)
			}
			return nil
		},
	}

	f := root.Flags()
	f.BoolVarP(&write, "write", "w", false, "write file to EEPROM")
	f.BoolVarP(&dump, "dump", "d", false, "dump EEPROM contents to file")
	root.MarkFlagsMutuallyExclusive("write", "dump")
	root.MarkFlagsOneRequired("write", "dump")

	f.StringVarP(&cfg.File, "file", "f", "", "name of data file")
	f.IntVarP(&cfg.Offset, "offset", "o", cfg.Offset, "start of the window in kBytes")
	f.IntVarP(&cfg.Count, "bytes", "b", cfg.Count, "end of the window in kBytes")
	f.StringVarP(&cfg.Port, "com", "c", cfg.Port, "serial port address")
	f.IntVarP(&cfg.Baud, "speed", "s", cfg.Baud, "serial port baud rate")
	f.StringVar(&cfg.Driver, "driver", cfg.Driver, "serial driver (bugst or tarm)")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "serial read timeout")
	f.DurationVar(&cfg.SettleDelay, "settle", cfg.SettleDelay, "wait after opening the port for the board to reset")
	f.IntVar(&cfg.ReadyAttempts, "ready-attempts", cfg.ReadyAttempts, "reads spent waiting for the device before a write")
	f.DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "time spent waiting for the device before a write")
	f.DurationVar(&cfg.DumpDelay, "dump-delay", cfg.DumpDelay, "pause between receiving a dump and saving it")
	f.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write JSON logs to this file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.meepromer/config.toml)")

	root.AddCommand(newPortsCmd())
	return root
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := link.ListPorts()
			if err != nil {
				return err
			}
			return printPorts(cmd.OutOrStdout(), ports)
		},
	}
}

func printPorts(w io.Writer, ports []link.PortInfo) error {
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "no serial ports found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tVID:PID\tSERIAL\tPRODUCT")
	for _, p := range ports {
		id := "-"
		if p.IsUSB {
			id = p.VID + ":" + p.PID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, id, orDash(p.SerialNumber), orDash(p.Product))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
