package config

import (
	"os"
	"path/filepath"
)

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "escrow-chat", "credentials.json")
	}

	return filepath.Join(dir, "escrow-chat", "credentials.json")
}
