package main

import "github.com/zero-day-ai/gridsync/cmd/gridsync/internal/command"

func main() {
	command.Execute()
}
