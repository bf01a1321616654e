package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Storage StorageConfig
	Auth    AuthConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type StorageConfig struct {
	DataDir string
}

type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens issued by the identity
	// provider. The token's sub claim is the stable user id.
	JWTSecret string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Gateway: GatewayConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "opencv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "opencv")
}

// Load reads configuration from a .env file (if present) and OPENCV_*
// environment variables. Environment variables win over the file.
func Load() (Config, error) {
	// Missing .env is not an error; env vars alone are fine.
	godotenv.Load()
	return loadFromEnv(os.Getenv)
}

func loadFromEnv(getenv func(string) string) (Config, error) {
	cfg := defaults()

	if v := getenv("OPENCV_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OPENCV_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := getenv("OPENCV_GATEWAY_URL"); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := getenv("OPENCV_GATEWAY_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := getenv("OPENCV_MODEL"); v != "" {
		cfg.Gateway.Model = v
	}
	if v := getenv("OPENCV_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := getenv("OPENCV_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := getenv("OPENCV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if cfg.Gateway.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: gateway API key. Set OPENCV_GATEWAY_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing required config: JWT secret. Set OPENCV_JWT_SECRET")
	}

	return cfg, nil
}
