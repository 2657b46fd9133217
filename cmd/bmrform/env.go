package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFileVar names an env file to load instead of ./.env.
const envFileVar = "BMRFORM_ENV_FILE"

// loadDotEnv loads the env file named by BMRFORM_ENV_FILE, or .env in the
// working directory. Variables already set in the process are kept. A missing
// .env is fine; a missing named file is an error.
func loadDotEnv() error {
	path := os.Getenv(envFileVar)
	named := path != ""
	if !named {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) && !named {
		return nil
	}

	return fmt.Errorf("load %s: %w", path, err)
}
