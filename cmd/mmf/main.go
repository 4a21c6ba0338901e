package main

import (
	"os"

	"github.com/tirkarthi/mmf/cmd/mmf/commands"
)

func main() {
	root := commands.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
