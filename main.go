package main

import "github.com/kiesman99/imgstitch/cmd"

func main() {
	cmd.Execute()
}
