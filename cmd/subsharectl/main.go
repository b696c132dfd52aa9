// Command subsharectl is the operator CLI: it converts channel dumps and TXT
// backups offline and runs catalog maintenance against the database.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"gitlab.com/subshare/subshare/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.SetLevel(os.Getenv("LOG_LEVEL"))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
