package keymap

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alia5/splitkb/board"
	"github.com/Alia5/splitkb/keycode"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Format names a keymap file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported keymap extension %q", filepath.Ext(path))
	}
}

// file is the on-disk form. Each row is a list of keycode names.
type file struct {
	Name   string      `yaml:"name,omitempty" toml:"name,omitempty"`
	Layers []fileLayer `yaml:"layers" toml:"layer"`
}

type fileLayer struct {
	Name string     `yaml:"name,omitempty" toml:"name,omitempty"`
	Rows [][]string `yaml:"rows" toml:"rows"`
}

// LoadFile reads and validates a keymap file.
func LoadFile(path string) (*Keymap, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	return Load(f, format)
}

// Load decodes a keymap in the given format and validates it.
func Load(r io.Reader, format Format) (*Keymap, error) {
	var f file
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&f); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	case FormatTOML:
		if err := toml.NewDecoder(r).Decode(&f); err != nil {
			return nil, fmt.Errorf("decoding keymap: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported keymap format %q", format)
	}

	km, err := f.keymap()
	if err != nil {
		return nil, err
	}
	if err := km.Validate(); err != nil {
		return nil, fmt.Errorf("validating keymap: %w", err)
	}
	return km, nil
}

func (f *file) keymap() (*Keymap, error) {
	if len(f.Layers) != board.Layers {
		return nil, fmt.Errorf("%w: %d layers, want %d", ErrShape, len(f.Layers), board.Layers)
	}
	km := &Keymap{}
	for l, layer := range f.Layers {
		if len(layer.Rows) != board.Rows {
			return nil, fmt.Errorf("%w: layer %d has %d rows, want %d", ErrShape, l, len(layer.Rows), board.Rows)
		}
		for r, row := range layer.Rows {
			if len(row) != board.UnifiedCols {
				return nil, fmt.Errorf("%w: layer %d row %d has %d keys, want %d", ErrShape, l, r, len(row), board.UnifiedCols)
			}
			for c, name := range row {
				kc, err := keycode.Parse(name)
				if err != nil {
					return nil, fmt.Errorf("layer %d r%dc%d: %w", l, r, c, err)
				}
				km[l][r][c] = kc
			}
		}
	}
	return km, nil
}

// Encode writes k in the given format using keycode names.
func (k *Keymap) Encode(w io.Writer, format Format) error {
	f := file{Layers: make([]fileLayer, board.Layers)}
	for l := range k {
		f.Layers[l].Name = fmt.Sprintf("layer%d", l)
		f.Layers[l].Rows = make([][]string, board.Rows)
		for r := range k[l] {
			row := make([]string, board.UnifiedCols)
			for c, kc := range k[l][r] {
				row[c] = kc.String()
			}
			f.Layers[l].Rows[r] = row
		}
	}

	var data []byte
	var err error
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(f); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	case FormatTOML:
		data, err = toml.Marshal(f)
	default:
		return fmt.Errorf("unsupported keymap format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encoding keymap: %w", err)
	}
	_, err = w.Write(data)
	return err
}
