package main

import "github.com/coralizer/coralizer-release/cmd/coralizer/cmd"

func main() {
	cmd.Execute()
}
