package main

import (
	"errors"
	"flag"
	"io"
)

type AppFlags struct {
	Target     string
	TargetFile string
	ConfigFile string
	Serve      bool
}

func parseFlags(args []string, output io.Writer) (AppFlags, error) {
	fs := flag.NewFlagSet("isitdown", flag.ContinueOnError)
	fs.SetOutput(output)

	target := fs.String("target", "", "Target to check once; the JSON result is printed to stdout")
	targetAlias := fs.String("t", "", "Alias for -target")

	targetFile := fs.String("file", "", "Path to a text file with one target per line; blank lines and # comments are skipped")
	targetFileAlias := fs.String("f", "", "Alias for -file")

	configFile := fs.String("config", "", "Path to the YAML configuration file. Defaults and ISITDOWN_* environment variables apply without it")
	configFileAlias := fs.String("c", "", "Alias for -config")

	serve := fs.Bool("serve", false, "Start the HTTP API")

	if err := fs.Parse(args); err != nil {
		return AppFlags{}, err
	}

	flags := AppFlags{
		Target:     firstNonEmpty(*target, *targetAlias),
		TargetFile: firstNonEmpty(*targetFile, *targetFileAlias),
		ConfigFile: firstNonEmpty(*configFile, *configFileAlias),
		Serve:      *serve,
	}

	modes := 0
	for _, set := range []bool{flags.Target != "", flags.TargetFile != "", flags.Serve} {
		if set {
			modes++
		}
	}
	switch {
	case modes == 0:
		return AppFlags{}, errors.New("one of -target, -file or -serve is required")
	case modes > 1:
		return AppFlags{}, errors.New("-target, -file and -serve are mutually exclusive")
	}

	return flags, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
