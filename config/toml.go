package config

import (
	"bytes"
	_ "embed"
	"os"
	"text/template"
)

// DefaultDirPerm is used for directories created under the engine root.
const DefaultDirPerm = 0o700

// Template for the rendered config.toml; field comments live in the
// template itself so the file on disk is self-describing.
//
//go:embed config.toml.tpl
var configFileTemplate string

var configTemplate = template.Must(template.New("configFile").Parse(configFileTemplate))

// WriteConfigFile renders cfg into config.toml at configFilePath.
// The rendered keys must stay in sync with the mapstructure tags in
// config.go, which is what viper reads back.
func WriteConfigFile(configFilePath string, cfg *Config) error {
	var buffer bytes.Buffer
	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}
	return os.WriteFile(configFilePath, buffer.Bytes(), 0o644)
}
