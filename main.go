package main

import "meshdrop/cmd"

func main() {
	cmd.Execute()
}
