// Package cli implements the interactive operator console talking to a
// running server over its HTTP API.
package cli

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/filemill/internal/flagx"
)

type Config struct {
	ServerEndpointAddr string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8080"
}

// LoadConfig builds the client config from defaults, the SERVER_ADDR
// environment variable and the -a flag, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.ServerEndpointAddr = addr
	}

	fs := flag.NewFlagSet("filemillctl", flag.ContinueOnError)
	addr := fs.String("a", cfg.ServerEndpointAddr, "server endpoint address")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-a"}))
	cfg.ServerEndpointAddr = *addr

	return cfg
}
