package main

import "github.com/ampview/ampview/internal/cli"

func main() {
	cli.Execute()
}
