package main

import "github.com/chimed/chimed/cmd/chimectl/cmd"

func main() {
	cmd.Execute()
}
