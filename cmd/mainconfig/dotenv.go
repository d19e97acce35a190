package mainconfig

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env files into the process environment for local runs.
// Variables already set win. A missing file is not an error; with no paths the
// default ".env" is tried.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
