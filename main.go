package main

import "polyclassify/cmd"

func main() {
	cmd.Execute()
}
