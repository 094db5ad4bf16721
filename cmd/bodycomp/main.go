package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/bodycomp/bodycomp/internal/cli"
)

func main() {
	// Optional .env for BODYCOMP_* overrides during development.
	_ = godotenv.Load()

	cli.InitCLI()
	os.Exit(cli.ExecuteWithErrorCode(os.Args[1:]))
}
