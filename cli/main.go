package main

import "github.com/ankit-chaubey/photometa/cli/cmd"

var version = "0.1.0"

func main() {
	cmd.Execute(version)
}
