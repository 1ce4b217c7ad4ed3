package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wikibot/pkg"
)

// RegistryFile represents the structure of the bot registry YAML file.
type RegistryFile struct {
	Bots []pkg.IndexConfig `yaml:"bots"`
}

// LoadRegistryFile loads the bot index definitions from a YAML file.
func LoadRegistryFile(filepath string) ([]pkg.IndexConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading registry file: %w", err)
	}

	var file RegistryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing registry YAML: %w", err)
	}

	for i, bot := range file.Bots {
		if bot.BotID == "" {
			return nil, fmt.Errorf("registry entry %d has no bot_id", i)
		}
	}

	return file.Bots, nil
}
