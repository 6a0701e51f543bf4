package main

import (
	"os"

	"github.com/fluxion-eng/fluxion/cmd/fluxion"
)

func main() {
	os.Exit(fluxion.Execute())
}
