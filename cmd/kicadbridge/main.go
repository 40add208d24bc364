package main

import "github.com/OpenTraceLab/kicadbridge/cmd/kicadbridge/cmd"

func main() {
	cmd.Execute()
}
