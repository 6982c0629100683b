package segment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params holds tuning parameters for segmentation runs. Zero values for tile
// sizes mean "whole image"; a nil Channel means "all channels".
type Params struct {
	// Watershed: pixels >= Thresh (when Geq) or < Thresh (otherwise)
	// form the foreground mask.
	Thresh float64 `yaml:"thresh"`
	Geq    bool    `yaml:"geq"`

	// Blob detection. Invert negates intensities before detection; blob
	// detectors expect bright blobs on a dark background and nuclei stains
	// are often the inverse.
	Invert        bool    `yaml:"invert"`
	MinSigma      float64 `yaml:"min_sigma"`
	MaxSigma      float64 `yaml:"max_sigma"`
	NumSigma      int     `yaml:"num_sigma"`
	BlobThreshold float64 `yaml:"blob_threshold"`

	// Tiling and orchestration.
	TileWidth  int    `yaml:"tile_width"`
	TileHeight int    `yaml:"tile_height"`
	Channel    *int   `yaml:"channel,omitempty"`
	Workers    int    `yaml:"workers"`
	KeyAdded   string `yaml:"key_added,omitempty"`
}

// DefaultParams returns defaults tuned for nuclei stains scaled to [0, 1].
func DefaultParams() Params {
	return Params{
		Thresh: 0.5,
		Geq:    true,

		Invert:        true,
		MinSigma:      2,
		MaxSigma:      12,
		NumSigma:      6,
		BlobThreshold: 0.05,

		Workers: 1,
	}
}

// WithThreshold returns a copy of params with the watershed threshold set.
func (p Params) WithThreshold(thresh float64, geq bool) Params {
	p.Thresh = thresh
	p.Geq = geq
	return p
}

// WithTiles returns a copy of params with the tile size set.
func (p Params) WithTiles(width, height int) Params {
	p.TileWidth = width
	p.TileHeight = height
	return p
}

// WithChannel returns a copy of params restricted to one channel.
func (p Params) WithChannel(idx int) Params {
	p.Channel = &idx
	return p
}

// WithWorkers returns a copy of params with the tile worker count set.
func (p Params) WithWorkers(n int) Params {
	p.Workers = n
	return p
}

// WithKey returns a copy of params with the output layer key set.
func (p Params) WithKey(key string) Params {
	p.KeyAdded = key
	return p
}

// LoadParams reads parameters from a YAML file. Keys absent from the file
// keep their default values.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read params file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse params file: %w", err)
	}
	return p, nil
}

// Save writes the parameters to a YAML file.
func (p Params) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write params file: %w", err)
	}
	return nil
}
