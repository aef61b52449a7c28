package main

import "github.com/chimed/chimed/cmd/chimed/cmd"

func main() {
	cmd.Execute()
}
