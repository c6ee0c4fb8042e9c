package project

import (
	"errors"
	"os"

	"github.com/piwi3910/barcut/internal/model"
)

// SaveOptimizerConfig writes an optimizer config, including any results, to path.
func SaveOptimizerConfig(path string, cfg model.OptimizerConfig) error {
	return writeJSON(path, cfg)
}

// LoadOptimizerConfig reads an optimizer config from path.
// Returns an empty config if the file does not exist.
func LoadOptimizerConfig(path string) (model.OptimizerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewOptimizerConfig(), nil
		}
		return model.OptimizerConfig{}, err
	}
	return model.DecodeOptimizerConfig(data)
}
