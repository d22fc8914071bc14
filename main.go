package main

import (
	"os"

	"github.com/mittwald/mittsmoke/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
