package main

import (
	"github.com/Mosical/pico-venti/cmd"
)

func main() {
	cmd.Execute()
}
