package main

import "github.com/turtacn/genguard/cmd/cli"

func main() {
	cli.Execute()
}
