package main

import "github.com/clipfeed/clipfeed/cmd/clipfeed/cmd"

func main() {
	cmd.Execute()
}
