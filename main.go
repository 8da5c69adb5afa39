package main

import "github.com/KaramelBytes/orderlens-cli/cmd"

func main() {
	cmd.Execute()
}
