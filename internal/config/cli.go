// Package config holds the root command line of lwclone.
package config

import "github.com/Alia5/lwclone/internal/cmd"

// Log configures the process-wide loggers.
type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"LWCLONE_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" type:"path" env:"LWCLONE_LOG_FILE"`
	RawFile string `help:"Write raw link traffic to this file" type:"path" env:"LWCLONE_LOG_RAW_FILE"`
}

// CLI is the kong command tree.
type CLI struct {
	Log    Log    `embed:"" prefix:"log."`
	Config string `help:"Configuration file (JSON, YAML or TOML)" type:"path" env:"LWCLONE_CONFIG"`

	Serve   cmd.Serve   `cmd:"" help:"Run the emulated controller and its API"`
	SBA     cmd.SBA     `cmd:"" name:"sba" help:"Send an SBA command (enable bits and pulse speed)"`
	PBA     cmd.PBA     `cmd:"" name:"pba" help:"Send PBA commands (brightness or pattern per channel)"`
	LEDs    cmd.LEDs    `cmd:"" name:"leds" help:"Show LED channels of a running emulator"`
	Inputs  cmd.Inputs  `cmd:"" help:"Show panel inputs of a running emulator"`
	Press   cmd.Press   `cmd:"" help:"Press a panel input of a running emulator"`
	Release cmd.Release `cmd:"" help:"Release a panel input of a running emulator"`
	Stats   cmd.Stats   `cmd:"" help:"Show counters of a running emulator"`

	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}
