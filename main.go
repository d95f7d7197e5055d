package main

import "github.com/agentic-research/libcat/cmd"

func main() {
	cmd.Execute()
}
