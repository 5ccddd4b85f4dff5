// Package main is the entry point for the vouch CLI.
package main

import "gooze.dev/pkg/vouch/cmd"

func main() {
	cmd.Execute()
}
