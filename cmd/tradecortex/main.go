package main

import "github.com/dyike/TradeCortex/internal/cli"

func main() {
	cli.Run()
}
