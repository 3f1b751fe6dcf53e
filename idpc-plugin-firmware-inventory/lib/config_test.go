package inventory

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	want := Config{
		Sections:    []string{"system", "software"},
		XML:         true,
		VersionOnly: true,
		Tools:       map[string]string{"ipmitool": "/opt/ipmitool", "dpkg-query": "/usr/bin/dpkg-query"},
		AidaReport:  "report.xml",
		Timeout:     "30s",
	}

	t.Run("env", func(t *testing.T) {
		content := `SECTIONS=system,software
XML=true
VERSION_ONLY=1
IPMITOOL_PATH=/opt/ipmitool
DPKG_QUERY_PATH=/usr/bin/dpkg-query
AIDA_REPORT=report.xml
TIMEOUT=30s
`
		got, err := ParseConfig([]byte(content), "env")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("yaml", func(t *testing.T) {
		content := `sections: [system, software]
xml: true
version_only: true
tools:
  ipmitool: /opt/ipmitool
  dpkg-query: /usr/bin/dpkg-query
aida_report: report.xml
timeout: 30s
`
		got, err := ParseConfig([]byte(content), "yml")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("json", func(t *testing.T) {
		content := `{"sections": ["system", "software"], "xml": true, "version_only": true,
"tools": {"ipmitool": "/opt/ipmitool", "dpkg-query": "/usr/bin/dpkg-query"},
"aida_report": "report.xml", "timeout": "30s"}`
		got, err := ParseConfig([]byte(content), "JSON")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name, content, format, err string
	}{
		{"format", "", "toml", "invalid config file format 'toml'"},
		{"key", "COLOR=red\n", "env", "key COLOR is invalid"},
		{"bool", "XML=maybe\n", "env", "invalid value 'maybe' for XML"},
		{"section", "sections: [gpu]\n", "yaml", "unknown section 'gpu'"},
		{"timeout", `{"timeout": "soon"}`, "json", "invalid timeout 'soon'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.content), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.env")
	require.NoError(t, os.WriteFile(path, []byte("DRY_RUN=true\n"), 0o644))

	cfg, err := ReadConfigFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, DefaultCommandTimeout, cfg.CommandTimeout())

	_, err = ReadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config file")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCommandTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Config{Timeout: "30s"}.CommandTimeout())
	assert.Equal(t, DefaultCommandTimeout, Config{Timeout: "-1s"}.CommandTimeout())
}
