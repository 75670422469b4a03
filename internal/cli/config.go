package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/srclib-cargo/pkg/errors"
)

// configuration is the file layout read by --config:
//
//	[scan]
//	discovery = "workspace"
//	exclude = ["vendor/**"]
//	timeout = "10m"
//
// Keys are the long flag names of the scan command.
type configuration struct {
	Scan map[string]any `toml:"scan"`
}

// defaultConfigPath returns the per-user config file, or "" when there is
// none.
func defaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// applyConfig reads the [scan] table of the file at path and sets every flag
// in fs that was not given on the command line. An explicit path must exist;
// an empty path falls back to the per-user file if there is one.
func applyConfig(fs *pflag.FlagSet, path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return nil
		}
	}

	var cfg configuration
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
	}

	for key, value := range cfg.Scan {
		flag := fs.Lookup(key)
		if flag == nil || key == "config" {
			return errors.New(errors.ErrCodeInvalidConfig, "config file %s: unknown key scan.%s", path, key)
		}
		if flag.Changed {
			continue
		}
		values, err := flagValues(value)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s: scan.%s", path, key)
		}
		for _, v := range values {
			if err := fs.Set(key, v); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s: scan.%s", path, key)
			}
		}
	}
	return nil
}

// flagValues renders a decoded TOML value as flag arguments. Arrays yield one
// argument per element.
func flagValues(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case bool:
		return []string{strconv.FormatBool(v)}, nil
	case int64:
		return []string{strconv.FormatInt(v, 10)}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("array elements must be strings, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}
