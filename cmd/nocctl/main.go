// nocctl is the CLI client for a running nocsimd daemon's admin HTTP API.
package main

import "github.com/dantte-lp/nocrouter/cmd/nocctl/commands"

func main() {
	commands.Execute()
}
