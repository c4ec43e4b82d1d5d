// Command mapctl inspects and edits the saved map slot from the shell.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/navoditbharat/mapsketch/internal/pkg/logging"
)

type Options struct {
	Verbose bool `short:"v" long:"verbose" description:"Log at debug level"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		level := "warn"
		if opts.Verbose {
			level = "debug"
		}
		logging.Setup(level, "text")
		return cmd.Execute(args)
	}

	out := os.Stdout
	mustAdd(parser, "area", "Print the area of the polygon in a GeoJSON file", &AreaCommand{out: out})
	mustAdd(parser, "show", "Print the saved state the way the sidebar lists it", &ShowCommand{out: out})
	mustAdd(parser, "export", "Write the saved state as a GeoJSON FeatureCollection", &ExportCommand{out: out})
	mustAdd(parser, "import", "Decode a GeoJSON file into the saved slot", &ImportCommand{out: out})
	mustAdd(parser, "discard", "Delete the saved slot", &DiscardCommand{out: out})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAdd(p *flags.Parser, name, desc string, cmd interface{}) {
	if _, err := p.AddCommand(name, desc, desc, cmd); err != nil {
		panic(err)
	}
}
