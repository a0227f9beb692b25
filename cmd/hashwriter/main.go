// Package main is the hashwriter CLI entrypoint.
package main

import (
	"os"

	"hashwriter/internal/app"
)

func main() {
	application := app.New()
	os.Exit(application.Run(os.Args[1:]))
}
