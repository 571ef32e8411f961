package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/engine"
	"github.com/rubiojr/enigma/internal/rotor"
)

// Config represents the overall application configuration
type Config struct {
	Machine MachineConfig `toml:"machine"`
	Crack   CrackConfig   `toml:"crack"`
	API     APIConfig     `toml:"api"`
	Nats    NatsConfig    `toml:"nats"`
	Path    string        `toml:"-"`
}

// MachineConfig holds the rotor and reflector pair patterns
type MachineConfig struct {
	Rotors    []string `toml:"rotors"`
	Reflector string   `toml:"reflector"`
}

// CrackConfig represents the key search configuration section
type CrackConfig struct {
	Concurrency int `toml:"concurrency"`
	CacheSizeMB int `toml:"cache_size_mb"`
}

// APIConfig represents the HTTP API configuration section
type APIConfig struct {
	Address string `toml:"address"`
}

// NatsConfig represents the distributed search configuration section
type NatsConfig struct {
	ServerURL  string `toml:"server_url"`
	Subject    string `toml:"subject"`
	Queue      string `toml:"queue"`
	Timeout    int    `toml:"timeout"`
	ClientCert string `toml:"client_cert"`
	ClientKey  string `toml:"client_key"`
	CACert     string `toml:"ca_cert"`
}

func (c Config) NormalizePath(file string) string {
	if file == "" {
		return ""
	}

	if strings.HasPrefix(file, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}
		file = filepath.Join(homeDir, file[1:])
	}

	if filepath.IsAbs(file) {
		return file
	}

	return filepath.Join(filepath.Dir(c.Path), file)
}

// BuildMachine builds the cipher machine described by the [machine] section.
func (c Config) BuildMachine() (*engine.Machine, error) {
	bank, err := rotor.NewBank(c.Machine.Rotors, c.Machine.Reflector)
	if err != nil {
		return nil, fmt.Errorf("invalid machine configuration: %w", err)
	}
	return engine.New(bank), nil
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cdir, err := DefaultConfigDir()
	if err != nil {
		panic(err)
	}

	return &Config{
		Path: filepath.Join(cdir, "config.toml"),
		Machine: MachineConfig{
			Rotors:    rotor.DefaultRotorPatterns(),
			Reflector: rotor.ReflectorPattern,
		},
		Crack: CrackConfig{
			Concurrency: runtime.NumCPU(),
			CacheSizeMB: 32,
		},
		API: APIConfig{
			Address: "localhost:8449",
		},
		Nats: NatsConfig{
			ServerURL: "nats://localhost:4222",
			Subject:   "ENIGMA.shards",
			Queue:     "enigma-workers",
			Timeout:   30,
		},
	}
}

// LoadConfig loads the configuration from the specified file path
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	config.Path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found")
	}

	_, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %v", err)
	}

	config.Nats.ClientKey = config.NormalizePath(config.Nats.ClientKey)
	config.Nats.ClientCert = config.NormalizePath(config.Nats.ClientCert)
	config.Nats.CACert = config.NormalizePath(config.Nats.CACert)

	return config, nil
}

// LoadConfigFromCLI loads the file named by --config, or the default file
// if it exists, and applies flag overrides on top.
func LoadConfigFromCLI(ctx *cli.Context) (*Config, error) {
	var cfg *Config
	var err error
	if ctx.String("config") != "" {
		cfg, err = LoadConfig(ctx.String("config"))
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %v", err)
		}
	} else {
		cfg, err = LoadDefaultConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load default config: %v", err)
		}
	}

	if concurrency := ctx.Int("concurrency"); concurrency > 0 {
		cfg.Crack.Concurrency = concurrency
	}

	if address := ctx.String("address"); address != "" {
		cfg.API.Address = address
	}

	if natsServer := ctx.String("nats-url"); natsServer != "" {
		cfg.Nats.ServerURL = natsServer
	}

	if subject := ctx.String("subject"); subject != "" {
		cfg.Nats.Subject = subject
	}

	if clientCert := ctx.String("client-cert"); clientCert != "" {
		cfg.Nats.ClientCert = cfg.NormalizePath(clientCert)
	}

	if clientKey := ctx.String("client-key"); clientKey != "" {
		cfg.Nats.ClientKey = cfg.NormalizePath(clientKey)
	}

	if caCert := ctx.String("ca-cert"); caCert != "" {
		cfg.Nats.CACert = cfg.NormalizePath(caCert)
	}

	return cfg, nil
}

// LoadDefaultConfig loads the configuration from the default path. A missing
// file yields the defaults.
func LoadDefaultConfig() (*Config, error) {
	configDir, err := DefaultConfigDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(configPath)
}

// SaveConfig saves the configuration to the specified file path
func SaveConfig(config *Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	defer file.Close()

	return WriteConfig(file, config)
}

// WriteConfig encodes the configuration as TOML.
func WriteConfig(w io.Writer, config *Config) error {
	if err := toml.NewEncoder(w).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}
	return nil
}

// DefaultConfigDir returns the configuration directory path
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %v", err)
	}

	return filepath.Join(homeDir, ".config", "enigma"), nil
}
