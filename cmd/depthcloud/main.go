// depthcloud records, replays and inspects depth sensor point clouds.
//
// Usage:
//
//	depthcloud [--config FILE] [--quiet] <command> [flags]
//
// Commands:
//
//	synth     write a synthetic snapshot stream
//	replay    push a snapshot stream through the ingest stage
//	profile   manage environment profiles
//	gridbox   render the debug grid box
//	version   print build information
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/banshee-data/depthcloud/internal/config"
	"github.com/banshee-data/depthcloud/internal/monitoring"
	"github.com/banshee-data/depthcloud/internal/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var configPath string
	var quiet bool

	flagSet := pflag.NewFlagSet("depthcloud", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to a .json or .jsonc config file (defaults apply to omitted keys)")
	flagSet.BoolVarP(&quiet, "quiet", "q", false, "suppress diagnostic logging")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if quiet {
		monitoring.SetLogger(nil)
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("missing command")
	}

	cfg := config.EmptyConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "synth":
		return runSynth(cfg, cmdArgs, stdout)
	case "replay":
		return runReplay(cfg, cmdArgs, stdout)
	case "profile":
		return runProfile(cfg, cmdArgs, stdout)
	case "gridbox":
		return runGridBox(cfg, cmdArgs, stdout)
	case "version":
		fmt.Fprintln(stdout, version.String("depthcloud"))
		return nil
	case "help":
		printUsage(stdout, flagSet)
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `depthcloud records, replays and inspects depth sensor point clouds.

Usage:
  depthcloud [flags] <command> [command flags]

Commands:
  synth     write a synthetic snapshot stream
  replay    push a snapshot stream through the ingest stage
  profile   manage environment profiles (list, create, rename, delete,
            select, set-map, set-meshes, verify, default)
  gridbox   render the debug grid box
  version   print build information

Flags:
%s`, flagSet.FlagUsages())
}

// parseCommandFlags parses a subcommand's flags, mapping --help to a nil
// error so callers can return early.
func parseCommandFlags(fs *pflag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
