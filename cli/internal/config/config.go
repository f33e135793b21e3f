// Package config loads server configuration from config files, environment
// variables and .env files.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// Config holds the application configuration.
type Config struct {
	DatabaseURL   string
	Provider      string
	ListenAddr    string
	UploadDir     string
	UploadBaseURL string
}

// Load reads configuration from the usual sources, lowest priority first:
// defaults, a .iestagram.yaml config file, IESTAGRAM_* environment
// variables, and .env/.env.local files.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".iestagram")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "iestagram"))

	viper.SetEnvPrefix("IESTAGRAM")
	viper.AutomaticEnv()

	viper.SetDefault("provider", "postgres")
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("upload_dir", "uploads")
	viper.SetDefault("upload_base_url", "/uploads")

	// Config file is optional.
	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Provider:      viper.GetString("provider"),
		ListenAddr:    viper.GetString("listen_addr"),
		UploadDir:     viper.GetString("upload_dir"),
		UploadBaseURL: viper.GetString("upload_base_url"),
	}
	if v := viper.GetString("database_url"); cfg.DatabaseURL == "" && v != "" {
		cfg.DatabaseURL = v
	}

	return cfg, nil
}
