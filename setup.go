package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rubiojr/enigma/internal/config"
)

func setupConfig(force bool) error {
	configDir, err := config.DefaultConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %v", err)
	}

	return writeConfigFiles(configDir, force)
}

func writeConfigFiles(configDir string, force bool) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	if err := writeEmbeddedFile("configs/nats.conf", filepath.Join(configDir, "nats.conf"), force); err != nil {
		return err
	}

	if err := writeEmbeddedFile("configs/config.toml", filepath.Join(configDir, "config.toml"), force); err != nil {
		return err
	}

	fmt.Println("Configuration files written successfully:")
	fmt.Printf("  Config directory: %s\n", configDir)
	fmt.Printf("  NATS config: %s\n", filepath.Join(configDir, "nats.conf"))
	fmt.Printf("  Enigma config: %s\n", filepath.Join(configDir, "config.toml"))

	return nil
}

func writeEmbeddedFile(embeddedPath, targetPath string, force bool) error {
	if !force {
		if _, err := os.Stat(targetPath); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", targetPath)
		}
	}

	file, err := configFiles.Open(embeddedPath)
	if err != nil {
		return fmt.Errorf("failed to open embedded file %s: %v", embeddedPath, err)
	}
	defer file.Close()

	targetFile, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %v", targetPath, err)
	}
	defer targetFile.Close()

	if _, err := io.Copy(targetFile, file); err != nil {
		return fmt.Errorf("failed to write file %s: %v", targetPath, err)
	}

	return nil
}
