package app

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded by the CLI before flags are parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads one or more dotenv files into the process environment.
// Later files override earlier ones and the existing environment. Missing
// files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := godotenv.Overload(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}
