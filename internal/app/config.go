package app

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/maxbolgarin/errm"

	"github.com/vulnbench/vulnbench/internal/config"
)

// LoadConfig reads configuration from the YAML file at path, falling back to
// environment variables only when no path is given. A .env file in the
// working directory is loaded into the environment first if present.
func LoadConfig(path string) (config.Config, error) {
	_ = godotenv.Load()

	var cfg config.Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, errm.Wrap(err, "read config file", "path", path)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, errm.Wrap(err, "read config from environment")
	}
	return cfg, nil
}
