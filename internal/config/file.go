package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/profile-factory/internal/domain/config"
)

// loadEnvFiles loads .env and .env.local. Variables already set in the
// environment win over the files.
func loadEnvFiles(projectRoot string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("failed to load env file", "file", envFile, "error", err)
		}
	}
}

// loadFileConfig parses pfactory.toml if present and expands ${VAR} references.
// A missing file yields an empty config and an empty path.
func loadFileConfig(projectRoot string) (*config.FileConfig, string, error) {
	path := filepath.Join(projectRoot, ConfigFileName)
	var cfg config.FileConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, "", nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, "", fmt.Errorf("unknown keys in %s: %v", ConfigFileName, undecoded)
	}

	for name, n := range cfg.Networks {
		if err := checkRPCReference(name, n.RPCURL); err != nil {
			return nil, "", err
		}
		n.Name = name
		n.RPCURL = os.ExpandEnv(n.RPCURL)
		cfg.Networks[name] = n
	}
	cfg.Upload.APIURL = os.ExpandEnv(cfg.Upload.APIURL)
	cfg.Upload.GatewayURL = os.ExpandEnv(cfg.Upload.GatewayURL)
	cfg.Upload.PinataJWT = os.ExpandEnv(cfg.Upload.PinataJWT)
	cfg.Registry.File = os.ExpandEnv(cfg.Registry.File)
	cfg.Deploy.ArtifactsDir = os.ExpandEnv(cfg.Deploy.ArtifactsDir)

	return &cfg, path, nil
}
