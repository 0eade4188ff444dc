package main

import "github.com/gokaycavdar/go-urlguard/cmd"

func main() {
	cmd.Execute()
}
