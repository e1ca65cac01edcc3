package main

import "freqgrabber/cmd/freqgrabber/cmd"

func main() {
	cmd.Execute()
}
