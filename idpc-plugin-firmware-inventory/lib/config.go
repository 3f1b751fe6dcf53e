package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorpher/idpc-plugins/utils"
	env "github.com/hashicorp/go-envparse"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the inventory settings that can come from a file.
type Config struct {
	Sections    []string          `yaml:"sections" json:"sections"`
	XML         bool              `yaml:"xml" json:"xml"`
	VersionOnly bool              `yaml:"version_only" json:"version_only"`
	DryRun      bool              `yaml:"dry_run" json:"dry_run"`
	Tools       map[string]string `yaml:"tools" json:"tools"`
	RunAida     bool              `yaml:"run_aida" json:"run_aida"`
	AidaReport  string            `yaml:"aida_report" json:"aida_report"`
	AidaCharset string            `yaml:"aida_charset" json:"aida_charset"`
	Timeout     string            `yaml:"timeout" json:"timeout"`
}

// ReadConfigFile reads a config file; its extension selects the format.
func ReadConfigFile(path string) (Config, error) {
	path = utils.ExpandHome(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to open config file")
	}
	return ParseConfig(content, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseConfig parses content written in format: env, yml, yaml or json.
func ParseConfig(content []byte, format string) (Config, error) {
	var c Config
	var err error
	switch strings.ToLower(format) {
	case "env":
		c, err = parseEnvConfig(content)
	case "yml", "yaml":
		err = yaml.Unmarshal(content, &c)
	case "json":
		err = json.Unmarshal(content, &c)
	default:
		err = errors.Errorf("invalid config file format '%s'", format)
	}
	if err != nil {
		return Config{}, err
	}
	return c, c.validate()
}

func parseEnvConfig(content []byte) (Config, error) {
	c := Config{Tools: map[string]string{}}
	values, err := env.Parse(strings.NewReader(string(content)))
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to load config")
	}

	for key, value := range values {
		switch {
		case key == "SECTIONS":
			c.Sections = strings.Split(value, ",")
		case key == "XML":
			c.XML, err = strconv.ParseBool(value)
		case key == "VERSION_ONLY":
			c.VersionOnly, err = strconv.ParseBool(value)
		case key == "DRY_RUN":
			c.DryRun, err = strconv.ParseBool(value)
		case key == "RUN_AIDA":
			c.RunAida, err = strconv.ParseBool(value)
		case key == "AIDA_REPORT":
			c.AidaReport = value
		case key == "AIDA_CHARSET":
			c.AidaCharset = value
		case key == "TIMEOUT":
			c.Timeout = value
		case strings.HasSuffix(key, "_PATH"):
			// DPKG_QUERY_PATH configures the dpkg-query tool
			tool := strings.ToLower(strings.ReplaceAll(strings.TrimSuffix(key, "_PATH"), "_", "-"))
			c.Tools[tool] = value
		default:
			return Config{}, errors.Errorf("key %v is invalid", key)
		}
		if err != nil {
			return Config{}, errors.Wrapf(err, "invalid value '%s' for %s", value, key)
		}
	}
	return c, nil
}

func (c Config) validate() error {
	if _, err := ParseSections(strings.Join(c.Sections, ",")); err != nil {
		return err
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return errors.Wrapf(err, "invalid timeout '%s'", c.Timeout)
		}
	}
	return nil
}

// CommandTimeout returns the configured per-command timeout.
func (c Config) CommandTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultCommandTimeout
	}
	return d
}
