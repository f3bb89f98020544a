// Command formsctl is the operator CLI: schema migrations, form imports and manual
// registration retries against the configured database.
package main

import (
	"os"

	"formflow/internal/platform/config"
)

func main() {
	if err := newRootCmd(config.FromEnv).Execute(); err != nil {
		os.Exit(1)
	}
}
