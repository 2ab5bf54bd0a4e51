package server

import (
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	// port the registry listens on. default = "5000"
	Port string `yaml:"port"`

	// connection string for the experiment store.
	//
	// "postgres://..." selects the postgres backend; anything else is
	// taken as a file path of the embedded sqlite store.
	DBURI string `yaml:"dburi"`
}

func LoadServerConfig(filepath string) (*ServerConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*ServerConfig, error) {
	out := ServerConfig{
		Port:  "5000",
		DBURI: "mlreg.db",
	}
	if err := yaml.Unmarshal(conf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
