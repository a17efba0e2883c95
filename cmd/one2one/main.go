package main

import "github.com/Adarsh-codesOP/one2one/cmd/one2one/cmd"

func main() {
	cmd.Execute()
}
