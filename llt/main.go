package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/ligatools/ligaledger/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion answers shell completion requests and returns immediately
// otherwise. Install with: COMP_INSTALL=1 llt
func completion() {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{}
	}
	sub["topic"] = &complete.Command{Args: predict.Something}

	llt := &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"data":     predict.Dirs("*"),
			"api":      predict.Something,
			"user":     predict.Something,
			"password": predict.Nothing,
			"season":   predict.Something,
		},
	}
	llt.Complete("llt")
}
