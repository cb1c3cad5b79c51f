package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stuarthighley/buildmap"
	"github.com/stuarthighley/buildmap/internal/config"
	"github.com/stuarthighley/buildmap/internal/logging"
)

const usage = `usage: buildmap [flags] <command> <args>

commands:
  convert <in> <out>   convert between .map and .json (chosen by extension)
  info <in>            print a YAML summary of a map
  tree <in>            print sectors with their walls and sprites

flags:
`

func main() {
	flags := pflag.NewFlagSet("buildmap", pflag.ContinueOnError)
	configDir := flags.String("config", ".", "directory holding "+config.ConfigName)
	flags.String("log-level", "info", "trace, debug, info, warn or error")
	flags.Bool("overwrite", false, "replace an existing output file")
	flags.String("json-indent", "  ", "indentation of JSON output")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.BindFlags(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, config.GetString("logLevel"), false)
	buildmap.SetLogger(logger)

	if err := run(flags.Args(), logger); err != nil {
		logger.Error().Err(err).Msg("Failed")
		os.Exit(1)
	}
}

func run(args []string, logger zerolog.Logger) error {
	if len(args) == 0 {
		return errors.New("no command given, see --help")
	}
	command, args := strings.ToLower(args[0]), args[1:]
	switch command {
	case "convert":
		if len(args) != 2 {
			return errors.New("convert needs an input and an output path")
		}
		return convert(args[0], args[1], logger)
	case "info":
		if len(args) != 1 {
			return errors.New("info needs one map path")
		}
		return info(args[0])
	case "tree":
		if len(args) != 1 {
			return errors.New("tree needs one map path")
		}
		return tree(args[0])
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func convert(in, out string, logger zerolog.Logger) error {
	m, err := buildmap.LoadMap(in)
	if err != nil {
		return err
	}
	if err := m.SaveIndent(out, config.GetBool("overwrite"), config.GetString("jsonIndent")); err != nil {
		return err
	}
	logger.Info().Str("from", in).Str("to", out).Msg("Converted")
	return nil
}

func info(in string) error {
	m, err := buildmap.LoadMap(in)
	if err != nil {
		return err
	}
	out, err := m.Summary().YAML()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func tree(in string) error {
	m, err := buildmap.LoadMap(in)
	if err != nil {
		return err
	}
	return buildmap.PrintTree(os.Stdout, m)
}
