package cmd

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the content of the vals.yaml configuration file.
//
//	source: sqlite
//	data: vals.db
//	currency: USD
//	prices: carry
//	wallets:
//	  main: "0x52a0c1e3f3e6c2b1a0f1d1d2c3b4a5968778695a"
type Config struct {
	Source      string            `yaml:"source"`      // dir, sqlite or http
	Data        string            `yaml:"data"`        // folder (dir) or database file (sqlite)
	URL         string            `yaml:"url"`         // API base URL (http)
	Currency    string            `yaml:"currency"`    // reference currency
	Prices      string            `yaml:"prices"`      // exact or carry
	Workers     int               `yaml:"workers"`     // days valued in parallel
	Concurrency int               `yaml:"concurrency"` // price histories fetched in parallel
	Rate        float64           `yaml:"rate"`        // API requests per second
	Paths       Paths             `yaml:"paths"`
	Wallets     map[string]string `yaml:"wallets"` // aliases of wallet addresses

	// Token authenticates API requests. It is never read from the file, only
	// from VALS_API_TOKEN.
	Token string `yaml:"-"`
}

// Paths are the JSONPath expressions locating items in API answers.
type Paths struct {
	Transactions string `yaml:"transactions"`
	Prices       string `yaml:"prices"`
}

// ReadConfig reads a YAML configuration file. Unknown keys are errors.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg := new(Config)
	dec := yaml.NewDecoder(f)
	dec.SetStrict(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Wallet resolves an alias to its address. Anything else is an address.
func (c *Config) Wallet(name string) string {
	if address, ok := c.Wallets[name]; ok {
		return address
	}
	return name
}
