package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/urfave/cli/v2"

	"github.com/rubiojr/enigma/internal/config"
)

func startEmbeddedNATSServer(c *cli.Context) error {
	opts := &server.Options{}

	opts.Debug = c.Bool("debug")
	opts.Trace = c.Bool("trace")

	conf := c.String("config")
	if conf == "" {
		configDir, err := config.DefaultConfigDir()
		if err != nil {
			return err
		}
		conf = filepath.Join(configDir, "nats.conf")
	}

	if _, err := os.Stat(conf); err == nil {
		opts.ConfigFile = conf
		if err := opts.ProcessConfigFile(conf); err != nil {
			return fmt.Errorf("failed to process config file: %v", err)
		}
	}

	if c.Int("port") != 0 {
		opts.Port = c.Int("port")
	}

	if c.Int("http-port") != 0 {
		opts.HTTPPort = c.Int("http-port")
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("failed to create NATS server: %v", err)
	}

	ns.ConfigureLogger()

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		return fmt.Errorf("NATS server failed to start in time")
	}

	fmt.Printf("NATS server is running at %s\n", ns.ClientURL())
	if opts.HTTPPort > 0 {
		fmt.Printf("HTTP monitoring available on port %d\n", opts.HTTPPort)
	}

	fmt.Println("Press Ctrl+C to stop the server")
	<-c.Context.Done()

	fmt.Println("\nShutting down NATS server...")
	ns.Shutdown()
	ns.WaitForShutdown()

	return nil
}
