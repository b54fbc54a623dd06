package main

import (
	"fmt"
	"os"

	"github.com/humanapp/mindcraft-lang-sub002/cmd/brainctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
