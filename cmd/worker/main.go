package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: worker remind [--lookahead=48h] [--dry-run]")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "remind":
		os.Exit(runRemind(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(2)
	}
}
