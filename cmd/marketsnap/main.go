package main

import "github.com/tdvu/marketsnap/internal/cli"

func main() {
	cli.Execute()
}
