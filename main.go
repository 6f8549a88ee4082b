package main

import (
	"github.com/netsentryhq/netsentry/cmd"
)

func main() {
	cmd.Execute()
}
