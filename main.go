package main

import (
	"os"

	"github.com/josephlewis42/lush/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
