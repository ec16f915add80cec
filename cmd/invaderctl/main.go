package main

import "github.com/averykip/invadersync/internal/cli"

func main() {
	cli.Execute()
}
