package configs

import (
	"fmt"
	"os"

	"github.com/lifetravel/endpoint/internal/infrastructure/env"
	"github.com/spf13/pflag"
)

var candidatePaths = []string{
	"./config.yaml",
	"./config.yml",
	"/etc/lifetravel/endpoint.yaml",
	"/app/config.yaml", // common in Docker
}

// DetermineConfigPath resolves the config file from --config, then
// ENDPOINT_CONFIG, then the well-known locations. An empty result means no
// file is used and configuration comes from defaults and the environment.
func DetermineConfigPath(args []string) (string, error) {
	fs := pflag.NewFlagSet("endpoint", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			return "", fmt.Errorf("config file %q: %w", *configPath, err)
		}
		return *configPath, nil
	}

	if p := env.GetString("ENDPOINT_CONFIG", ""); p != "" {
		return p, nil
	}

	for _, p := range candidatePaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}
