// Package project provides segmentation run files and persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// File records one segmentation run (.segproj): what was segmented, how, and
// which artifacts came out of it.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Source image path (relative to project file when possible)
	ImagePath string `json:"image,omitempty"`

	// Run configuration
	Backend    string `json:"backend"`
	ModelName  string `json:"model_name,omitempty"`
	ParamsPath string `json:"params,omitempty"`

	// Results
	MaskLayer       string  `json:"mask_layer,omitempty"`
	MaskPath        string  `json:"mask_path,omitempty"`
	Segments        int     `json:"segments"`
	MicronsPerPixel float64 `json:"microns_per_pixel,omitempty"`
}

// New creates a new project file for a segmentation run.
func New(name, backend string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Backend:  backend,
	}
}

// Load loads a project from a .segproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the source image path (relative to the project when possible).
func (p *File) SetImage(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the source image.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}
