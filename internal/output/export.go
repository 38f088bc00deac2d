package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// WriteResults persists v to path, encoded as YAML when the extension is
// .yaml/.yml and as JSON otherwise. A sibling lock file serializes writers so
// concurrent invocations sharing a results file do not interleave.
func WriteResults(path string, v any) error {
	if path == "" {
		return fmt.Errorf("results path is empty")
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock results file: %w", err)
	}
	defer lock.Unlock()

	data, err := encodeResults(path, v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}

func encodeResults(path string, v any) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode results as yaml: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode results as json: %w", err)
		}
		return append(data, '\n'), nil
	}
}
