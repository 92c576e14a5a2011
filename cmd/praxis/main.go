package main

import (
	"fmt"
	"os"

	_ "github.com/tliron/commonlog/simple"

	"github.com/phillarmonic/praxis/cmd/praxis/app"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := app.NewApp(version, commit, date).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
