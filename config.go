package bigchain

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML file format consumed by the CLI.
type Config struct {
	Nodes        []string      `yaml:"nodes"`
	VerifyingKey string        `yaml:"verifyingKey"`
	SigningKey   string        `yaml:"signingKey"`
	Timeout      time.Duration `yaml:"timeout"`
	ReadAttempts int           `yaml:"readAttempts"`
}

func LoadConfig(path string) (config *Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = errors.Wrap(err, "unable to read config file")
		return
	}

	config = &Config{}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		err = errors.Wrap(err, "unable to parse config file")
		config = nil
		return
	}

	return
}

func (c *Config) Options() *Options {
	return &Options{
		Nodes:        c.Nodes,
		VerifyingKey: c.VerifyingKey,
		SigningKey:   c.SigningKey,
		Timeout:      c.Timeout,
		ReadAttempts: c.ReadAttempts,
	}
}
