// Package devseed loads seed files used to pre-populate the in-memory WebHDFS
// namespace for tests and the sandbox server.
package devseed

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry describes one file or directory to create. Content and Base64 are
// mutually exclusive; directories carry neither.
type Entry struct {
	Path        string     `yaml:"path" json:"path"`
	Dir         bool       `yaml:"dir" json:"dir"`
	Content     string     `yaml:"content" json:"content"`
	Base64      string     `yaml:"base64" json:"base64"`
	Owner       string     `yaml:"owner" json:"owner"`
	Group       string     `yaml:"group" json:"group"`
	Permission  string     `yaml:"permission" json:"permission"`
	Replication int        `yaml:"replication" json:"replication"`
	ModTime     *time.Time `yaml:"mtime" json:"mtime"`
}

// Data returns the decoded file contents.
func (e Entry) Data() ([]byte, error) {
	if e.Base64 != "" {
		if e.Content != "" {
			return nil, fmt.Errorf("devseed: %s sets both content and base64", e.Path)
		}
		data, err := base64.StdEncoding.DecodeString(e.Base64)
		if err != nil {
			return nil, fmt.Errorf("devseed: decode base64 for %s: %w", e.Path, err)
		}
		return data, nil
	}
	return []byte(e.Content), nil
}

// Load reads seed entries from a YAML document. JSON is accepted as well since
// it is a subset of YAML.
func Load(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes seed entries from raw YAML or JSON.
func Parse(raw []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("devseed: parse: %w", err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Path) == "" {
			return nil, fmt.Errorf("devseed: entry %d missing path", i)
		}
		if e.Dir && (e.Content != "" || e.Base64 != "") {
			return nil, fmt.Errorf("devseed: directory %s cannot carry content", e.Path)
		}
	}
	return entries, nil
}
