package main

import (
	"os"
	"wa-scheduler/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
