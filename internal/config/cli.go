// Package config declares the splitkb command line. Every flag can also be
// set from a config file or a SPLITKB_* environment variable.
package config

import "github.com/Alia5/splitkb/internal/cmd"

type CLI struct {
	Config string `help:"Path to a config file (json, yaml or toml)" type:"path" env:"SPLITKB_CONFIG"`
	Log    Log    `embed:"" prefix:"log."`

	Sim        cmd.Sim           `cmd:"" help:"Run one keyboard half on this host"`
	Keymap     cmd.KeymapCommand `cmd:"" help:"Inspect keymap files"`
	Descriptor cmd.Descriptor    `cmd:"" help:"Write the HID report descriptor for a USB gadget"`
	ConfigCmd  cmd.ConfigCommand `cmd:"" name:"config" help:"Manage config files"`
}

type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"SPLITKB_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"SPLITKB_LOG_FILE"`
	Format  string `help:"Log record format" enum:"text,json" default:"text" env:"SPLITKB_LOG_FORMAT"`
	RawFile string `help:"Dump split link frames and reports to this file" env:"SPLITKB_LOG_RAW_FILE"`
}
