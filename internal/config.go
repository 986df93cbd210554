package internal

import (
	"fmt"

	"github.com/scholarsync/scholarsync_server/internal/blob"
	"github.com/scholarsync/scholarsync_server/internal/note"
	"github.com/scholarsync/scholarsync_server/internal/user"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr     string      `mapstructure:"listen_addr"`
	ExternalURL    string      `mapstructure:"external_url"`
	MasterPassword string      `mapstructure:"master_password"`
	AllowedOrigins []string    `mapstructure:"allowed_origins"`
	Database       DBConfig    `mapstructure:"database"`
	Storage        blob.Config `mapstructure:"storage"`
	Notes          note.Config `mapstructure:"notes"`
	Users          user.Config `mapstructure:"users"`
	Admin          AdminSeed   `mapstructure:"admin"`

	// ProtectedDownloads requires a valid JWT on the download endpoint.
	// Preview streaming stays public either way so shared links keep
	// working.
	ProtectedDownloads bool `mapstructure:"protected_downloads"`
}

type DBConfig struct {
	URL string `mapstructure:"url"`
}

// AdminSeed bootstraps the first admin account on startup.
type AdminSeed struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile("files/config.yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.Notes.ExternalURL == "" {
		config.Notes.ExternalURL = config.ExternalURL
	}

	return &config, nil
}
