package main

import "anchorview/cmd/client/cmd"

func main() {
	cmd.Execute()
}
