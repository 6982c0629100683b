package segment

import (
	"testing"

	"tissue-segmenter/internal/container"
)

// segmentedContainer builds a container with a ramp image layer and a mask
// layer holding the given label array.
func segmentedContainer(t *testing.T, width, height int, mask *container.LabelArray) *container.Container {
	t.Helper()
	c := container.New(width, height)
	layer := container.NewLayer("image", 1, width, height, container.ImageAxes)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			layer.Set(0, x, y, float32(y*width+x))
		}
	}
	if err := c.AddLayer(layer); err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}
	if err := c.AddLabels("segments", mask, "mask"); err != nil {
		t.Fatalf("AddLabels failed: %v", err)
	}
	return c
}

func TestSegmentCropsSinglePixelCentroid(t *testing.T) {
	// A label occupying exactly one pixel at row 5, column 10 must produce a
	// crop centered on (col 10, row 5).
	mask := container.NewLabelArray(20, 20)
	mask.Set(10, 5, 1)
	c := segmentedContainer(t, 20, 20, mask)

	crops, err := SegmentCrops(c, "image", "segments", 4, 4)
	if err != nil {
		t.Fatalf("SegmentCrops failed: %v", err)
	}
	if len(crops) != 1 {
		t.Fatalf("Got %d crops, want 1", len(crops))
	}
	// A 4x4 crop centered on (10, 5) has its origin at (8, 3).
	if crops[0].X != 8 || crops[0].Y != 3 {
		t.Errorf("Crop origin (%d,%d), want (8,3)", crops[0].X, crops[0].Y)
	}
}

func TestSegmentCropsAscendingOrderAndCount(t *testing.T) {
	mask := container.NewLabelArray(16, 16)
	mask.Set(2, 2, 7)
	mask.Set(12, 3, 1)
	mask.Set(6, 10, 3)
	c := segmentedContainer(t, 16, 16, mask)

	crops, err := SegmentCrops(c, "image", "segments", 4, 4)
	if err != nil {
		t.Fatalf("SegmentCrops failed: %v", err)
	}
	if len(crops) != 3 {
		t.Fatalf("Got %d crops, want one per distinct label", len(crops))
	}

	// Ascending label order: 1 at (12,3), 3 at (6,10), 7 at (2,2).
	wantOrigins := []struct{ x, y int }{
		{10, 1},
		{4, 8},
		{0, 0},
	}
	for i, want := range wantOrigins {
		if crops[i].X != want.x || crops[i].Y != want.y {
			t.Errorf("Crop %d origin (%d,%d), want (%d,%d)", i, crops[i].X, crops[i].Y, want.x, want.y)
		}
	}
}

func TestSegmentCropsMultiPixelCentroid(t *testing.T) {
	// Four pixels forming a square: centroid at the rounded mean.
	mask := container.NewLabelArray(12, 12)
	mask.Set(4, 6, 2)
	mask.Set(6, 6, 2)
	mask.Set(4, 8, 2)
	mask.Set(6, 8, 2)
	c := segmentedContainer(t, 12, 12, mask)

	crops, err := SegmentCrops(c, "image", "segments", 2, 2)
	if err != nil {
		t.Fatalf("SegmentCrops failed: %v", err)
	}
	if len(crops) != 1 {
		t.Fatalf("Got %d crops, want 1", len(crops))
	}
	// Mean column 5, mean row 7; 2x2 crop origin at (4, 6).
	if crops[0].X != 4 || crops[0].Y != 6 {
		t.Errorf("Crop origin (%d,%d), want (4,6)", crops[0].X, crops[0].Y)
	}
}

func TestSegmentCropsDefaultSize(t *testing.T) {
	mask := container.NewLabelArray(8, 8)
	mask.Set(4, 4, 1)
	c := segmentedContainer(t, 8, 8, mask)

	crops, err := SegmentCrops(c, "image", "segments", 0, 0)
	if err != nil {
		t.Fatalf("SegmentCrops failed: %v", err)
	}
	if crops[0].Width != DefaultCropSize || crops[0].Height != DefaultCropSize {
		t.Errorf("Crop size %dx%d, want default %d", crops[0].Width, crops[0].Height, DefaultCropSize)
	}
}

func TestSegmentCropsEmptyMask(t *testing.T) {
	mask := container.NewLabelArray(8, 8)
	c := segmentedContainer(t, 8, 8, mask)

	crops, err := SegmentCrops(c, "image", "segments", 4, 4)
	if err != nil {
		t.Fatalf("SegmentCrops failed: %v", err)
	}
	if len(crops) != 0 {
		t.Errorf("Got %d crops for an empty mask, want 0", len(crops))
	}
}

func TestSegmentCropsMissingMaskLayer(t *testing.T) {
	c := container.New(8, 8)
	if _, err := SegmentCrops(c, "image", "segments", 4, 4); err == nil {
		t.Fatal("Expected error for missing mask layer")
	}
}
