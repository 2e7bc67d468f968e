package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads the first .env file found in the working directory or its
// parents. Missing files are fine; containers get their environment from the
// runtime. Returns the path that was loaded, or empty.
func LoadDotEnv() string {
	paths := []string{".env", "../../.env"}
	if workDir, err := os.Getwd(); err == nil {
		parent := filepath.Dir(workDir)
		paths = append(paths,
			filepath.Join(parent, ".env"),
			filepath.Join(filepath.Dir(parent), ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			abs, _ := filepath.Abs(path)
			return abs
		}
	}
	return ""
}
