package main

import "github.com/marcus/taskpilot/cmd/taskpilot/commands"

func main() {
	commands.Execute()
}
