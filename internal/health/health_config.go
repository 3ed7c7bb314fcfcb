package health

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

func inspectConfigFile(path string) *ConfigInfo {
	info := &ConfigInfo{Path: path}

	stat, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			info.Exists = false
			return info
		}
		info.ParseError = err.Error()
		return info
	}

	info.Exists = true
	info.FileSizeBytes = stat.Size()
	info.UpdatedAt = stat.ModTime().Format(time.RFC3339)

	data, err := os.ReadFile(path)
	if err != nil {
		info.ParseError = err.Error()
		return info
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		info.ParseError = err.Error()
	}
	return info
}
