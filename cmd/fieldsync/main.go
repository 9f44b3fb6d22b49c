// fieldsync is the field client for offline incident reporting: it queues
// reports locally while disconnected and drains them to the server once
// connectivity returns.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
