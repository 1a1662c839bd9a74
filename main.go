package main

import "github.com/agentic-research/refview/cmd"

func main() {
	cmd.Execute()
}
