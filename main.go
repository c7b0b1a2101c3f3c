package main

import (
	"github.com/opstrack/opstrack/cmd"
)

func main() {
	cmd.Execute()
}
