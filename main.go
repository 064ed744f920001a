package main

import "github.com/veralux/pxmkit/cmd"

func main() {
	cmd.Execute()
}
