package project

import (
	"path/filepath"
	"testing"
)

func TestProjectSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.segproj")

	p := New("sample", "watershed")
	p.SetImage(path, filepath.Join(dir, "images", "sample.tiff"))
	p.MaskLayer = "segmented_watershed"
	p.Segments = 42
	p.MicronsPerPixel = 0.65

	if err := p.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Name != "sample" || got.Backend != "watershed" {
		t.Errorf("Loaded (%q, %q), want (sample, watershed)", got.Name, got.Backend)
	}
	if got.Segments != 42 || got.MicronsPerPixel != 0.65 {
		t.Errorf("Loaded results (%d, %v), want (42, 0.65)", got.Segments, got.MicronsPerPixel)
	}
	if got.ImagePath != filepath.Join("images", "sample.tiff") {
		t.Errorf("Image path %q, want project-relative images/sample.tiff", got.ImagePath)
	}
	if abs := got.GetImagePath(path); abs != filepath.Join(dir, "images", "sample.tiff") {
		t.Errorf("Absolute image path %q", abs)
	}
}

func TestLoadMissingProject(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.segproj")); err == nil {
		t.Fatal("Expected error for missing project file")
	}
}
