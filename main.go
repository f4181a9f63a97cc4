package main

import "github.com/kiesman99/mapexport/cmd"

func main() {
	cmd.Execute()
}
