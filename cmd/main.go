package main

import "pdf-agent/internal/cli"

func main() {
	cli.Execute()
}
