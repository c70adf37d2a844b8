package main

import "github.com/coralizer/coralizer-release/cmd/coralizer-publish/cmd"

func main() {
	cmd.Execute()
}
