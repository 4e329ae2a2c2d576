package main

import "musicapp/cmd"

func main() {
	cmd.Execute()
}
