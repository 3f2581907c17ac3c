package configpaths

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPathComesFirst(t *testing.T) {
	type testCase struct {
		name   string
		path   string
		format string
	}
	cases := []testCase{
		{name: "yaml", path: "/tmp/kb.yaml", format: "yaml"},
		{name: "yml", path: "/tmp/kb.yml", format: "yaml"},
		{name: "toml", path: "/tmp/kb.toml", format: "toml"},
		{name: "json", path: "/tmp/kb.json", format: "json"},
		{name: "no extension", path: "/tmp/kb", format: "json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j, y, to := ConfigCandidatePaths(tc.path)
			var first string
			switch tc.format {
			case "yaml":
				first = y[0]
			case "toml":
				first = to[0]
			default:
				first = j[0]
			}
			assert.Equal(t, tc.path, first)
		})
	}
}

func TestDefaultConfigDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("xdg layout only")
	}
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	dir, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "splitkb"), dir)

	_, y, _ := ConfigCandidatePaths("")
	assert.Contains(t, y, filepath.Join("/xdg", "splitkb", "config.yaml"))
}

func TestExt(t *testing.T) {
	assert.Equal(t, "yaml", Ext("yml"))
	assert.Equal(t, "toml", Ext("toml"))
	assert.Equal(t, "json", Ext(""))
}
