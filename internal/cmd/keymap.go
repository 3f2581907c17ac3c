package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keymap"
)

// KeymapCommand groups keymap subcommands.
type KeymapCommand struct {
	Show  KeymapShow  `cmd:"" help:"Print a keymap; the built-in one without a file"`
	Check KeymapCheck `cmd:"" help:"Validate a keymap file"`
}

type KeymapShow struct {
	File   string    `arg:"" optional:"" type:"existingfile" help:"Keymap file (yaml or toml)"`
	Format string    `help:"Output format" enum:"table,yaml,toml" default:"table"`
	Out    io.Writer `kong:"-"`
}

func (k *KeymapShow) Run() error {
	out := k.Out
	if out == nil {
		out = os.Stdout
	}

	km := keymap.Default()
	if k.File != "" {
		var err error
		if km, err = keymap.LoadFile(k.File); err != nil {
			return err
		}
	}

	switch k.Format {
	case "yaml":
		return km.Encode(out, keymap.FormatYAML)
	case "toml":
		return km.Encode(out, keymap.FormatTOML)
	default:
		return writeTable(out, km)
	}
}

func writeTable(w io.Writer, km *keymap.Keymap) error {
	const cell = 11
	var sb strings.Builder
	for l := range km {
		fmt.Fprintf(&sb, "layer %d\n", l)
		for r := range km[l] {
			for c, kc := range km[l][r] {
				if c == board.Cols {
					sb.WriteString("| ")
				}
				fmt.Fprintf(&sb, "%-*s", cell, kc.String())
			}
			sb.WriteString("\n")
		}
		if l < len(km)-1 {
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

type KeymapCheck struct {
	File string `arg:"" type:"existingfile" help:"Keymap file (yaml or toml)"`
}

func (k *KeymapCheck) Run(logger *slog.Logger) error {
	if _, err := keymap.LoadFile(k.File); err != nil {
		return err
	}
	logger.Info("Keymap is valid", "file", k.File)
	return nil
}
