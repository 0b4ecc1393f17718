package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
)

var version = "dev"

// @title Notka API
// @version 1.0
// @description Notes with file attachments and range-aware file serving.
// @BasePath /
func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
