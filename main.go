package main

import "github.com/ftl/radarview/cmd"

func main() {
	cmd.Execute()
}
