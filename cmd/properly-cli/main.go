package main

import "github.com/nfrund/properly/cmd/properly-cli/cmd"

func main() {
	cmd.Execute()
}
