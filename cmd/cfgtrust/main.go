package main

import "github.com/cfgtrust/cfgtrust/internal/cli"

func main() {
	cli.Execute()
}
