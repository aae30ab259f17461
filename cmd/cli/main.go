package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/cli"
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	opts, rest, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if len(rest) == 0 {
		cli.ShowHelp(os.Stdout)
		return
	}

	command := rest[0]
	args := rest[1:]

	if command == "version" {
		fmt.Printf("fvault %s", version)
		if commit != "" {
			fmt.Printf(" (commit %s)", commit)
		}
		if date != "" {
			fmt.Printf(" built %s", date)
		}
		fmt.Println()
		return
	}

	app := cli.New(opts, os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(context.Background(), command, args); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// parseGlobalFlags pulls the global flags out of args wherever they appear
// and returns what is left.
func parseGlobalFlags(args []string) (cli.Options, []string, error) {
	opts := cli.DefaultOptions()
	var rest []string

	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("flag %s needs a value", name)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-c", "--config":
			v, err := value(i, arg)
			if err != nil {
				return opts, nil, err
			}
			opts.ConfigPath = v
			i++
		case "-f", "--format":
			v, err := value(i, arg)
			if err != nil {
				return opts, nil, err
			}
			if v != "table" && v != "json" {
				return opts, nil, fmt.Errorf("unknown format %q (expected table or json)", v)
			}
			opts.Format = v
			i++
		case "-t", "--timeout":
			v, err := value(i, arg)
			if err != nil {
				return opts, nil, err
			}
			d, err := time.ParseDuration(v)
			if err != nil {
				return opts, nil, fmt.Errorf("invalid timeout %q: %w", v, err)
			}
			opts.Timeout = d
			i++
		case "-y", "--yes":
			opts.Yes = true
		case "-v", "--verbose":
			opts.Verbose = true
		default:
			rest = append(rest, arg)
		}
	}
	return opts, rest, nil
}
