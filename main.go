package main

import (
	"ajnadfm/cmd"
)

func main() {
	cmd.Execute()
}
