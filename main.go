package main

import "swissdox-cli/cmd"

func main() {
	cmd.Execute()
}
