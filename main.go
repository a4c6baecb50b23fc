package main

import "github.com/douhashi/steward/cmd"

func main() {
	cmd.Execute()
}
