package main

import "github.com/poisson-gamma/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
