package main

import "github.com/kozaktomas/face-threshold/cmd"

func main() {
	cmd.Execute()
}
