package main

import (
	"os"

	"github.com/Divyanshu11011/BlockTalk/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
