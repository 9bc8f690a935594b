// Command farc inspects, extracts and repacks FARC archives.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is not an error; the environment is used as is.
	_ = godotenv.Load() //nolint:errcheck // optional file

	cmd := newRootCmd(configFromEnv())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
