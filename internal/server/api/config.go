package api

import "time"

// ServerConfig represents the API listener configuration of the serve command.
type ServerConfig struct {
	Addr              string        `help:"API server listen address" default:":3243" env:"LWCLONE_API_ADDR"`
	Password          string        `help:"Require clients to authenticate with this password; empty disables auth" env:"LWCLONE_API_PASSWORD"`
	ConnectionTimeout time.Duration `kong:"-"`
}
