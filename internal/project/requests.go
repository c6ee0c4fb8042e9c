package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/barcut/internal/model"
)

// LoadRequest reads an optimization request from a JSON or YAML file. YAML
// documents use the same keys as the JSON wire format.
func LoadRequest(path string) (model.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Request{}, err
	}
	return DecodeRequest(data, isYAML(path))
}

// DecodeRequest parses request data as JSON, or as YAML when asYAML is set.
func DecodeRequest(data []byte, asYAML bool) (model.Request, error) {
	if asYAML {
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return model.Request{}, fmt.Errorf("failed to parse request yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return model.Request{}, fmt.Errorf("failed to convert request yaml: %w", err)
		}
		data = converted
	}

	var req model.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return model.Request{}, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// SaveRequest writes a request in the wire format. The file extension picks
// between JSON and YAML.
func SaveRequest(path string, req model.Request) error {
	if !isYAML(path) {
		return writeJSON(path, req)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
