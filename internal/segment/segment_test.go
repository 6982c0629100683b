package segment

import (
	"fmt"
	"strings"
	"testing"

	"tissue-segmenter/internal/container"
)

// imageContainer builds a container holding a zeroed single-channel layer
// under "image".
func imageContainer(t *testing.T, width, height int) *container.Container {
	t.Helper()
	c := container.New(width, height)
	if err := c.AddLayer(container.NewLayer("image", 1, width, height, container.ImageAxes)); err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}
	return c
}

func TestParseBackend(t *testing.T) {
	cases := []struct {
		in   string
		want Backend
	}{
		{"blob", BackendBlob},
		{"watershed", BackendWatershed},
		{"model", BackendModel},
	}
	for _, tc := range cases {
		got, err := ParseBackend(tc.in)
		if err != nil {
			t.Errorf("ParseBackend(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseBackend(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got.String() != tc.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tc.in)
		}
	}
}

func TestParseBackendUnrecognized(t *testing.T) {
	_, err := ParseBackend("nonsense")
	if err == nil {
		t.Fatal("Expected error for unrecognized backend")
	}
	if !strings.Contains(err.Error(), "nonsense") {
		t.Errorf("Error %q does not name the offending value", err)
	}
}

func TestSegmentUnrecognizedBackendFailsBeforeCrops(t *testing.T) {
	// The container has no layers at all: if the backend check ran after
	// cropping, we would see a missing-layer error instead.
	img := container.New(4, 4)

	err := Segment(img, "image", "nonsense", nil, DefaultParams())
	if err == nil {
		t.Fatal("Expected error for unrecognized backend")
	}
	if !strings.Contains(err.Error(), "nonsense") {
		t.Errorf("Error %q does not name the offending backend", err)
	}
	if len(img.Keys()) != 0 {
		t.Errorf("Container gained layers %v on a failed call", img.Keys())
	}
}

func TestSegmentBadModelReference(t *testing.T) {
	img := imageContainer(t, 4, 4)

	err := Segment(img, "image", "model", 42, DefaultParams())
	if err == nil {
		t.Fatal("Expected construction error for a non-callable model reference")
	}
	if !strings.Contains(err.Error(), "int") {
		t.Errorf("Error %q does not name the offending type", err)
	}
}

func TestBlobUnrecognizedMethod(t *testing.T) {
	model := NewBlobModel("banana", DefaultParams())
	plane := container.NewLayer("image", 1, 4, 4, container.ImageAxes)

	_, err := model.Segment(plane)
	if err == nil {
		t.Fatal("Expected error for unrecognized blob method")
	}
	if !strings.Contains(err.Error(), "banana") {
		t.Errorf("Error %q does not name the offending method", err)
	}
}

func TestSegmentEndToEndWithExternalModel(t *testing.T) {
	// 4x2 image tiled into two 2x2 crops. The fake model labels crop A with
	// {1, 2} and crop B with {1}; after reconciliation and stitching, B's
	// label must come out as 3 at B's origin.
	img := imageContainer(t, 4, 2)

	tileMasks := [][]int32{
		{0, 1, 2, 0},
		{0, 1, 0, 0},
	}
	var call int
	fake := Func(func(plane *container.Layer) (*container.LabelArray, error) {
		mask := container.NewLabelArray(plane.Width, plane.Height)
		copy(mask.Pixels, tileMasks[call])
		call++
		return mask, nil
	})

	params := DefaultParams().WithTiles(2, 2)
	if err := Segment(img, "image", "model", fake, params); err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	labels, err := img.Labels("segmented_model")
	if err != nil {
		t.Fatalf("Default output layer missing: %v", err)
	}

	want := []int32{
		0, 1, 0, 3,
		2, 0, 0, 0,
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if got := labels.At(x, y); got != want[y*4+x] {
				t.Errorf("Merged mask (%d,%d) = %d, want %d", x, y, got, want[y*4+x])
			}
		}
	}

	distinct := labels.Distinct()
	if len(distinct) != 3 {
		t.Errorf("Merged mask labels = %v, want three globally unique labels", distinct)
	}
}

func TestSegmentTileFailureLeavesContainerUnmodified(t *testing.T) {
	img := imageContainer(t, 4, 2)

	var call int
	fake := Func(func(plane *container.Layer) (*container.LabelArray, error) {
		call++
		if call == 2 {
			return nil, fmt.Errorf("model exploded")
		}
		return container.NewLabelArray(plane.Width, plane.Height), nil
	})

	err := Segment(img, "image", "model", fake, DefaultParams().WithTiles(2, 2))
	if err == nil {
		t.Fatal("Expected the tile failure to abort the call")
	}
	if !strings.Contains(err.Error(), "model exploded") {
		t.Errorf("Error %q does not carry the model failure", err)
	}
	if len(img.Keys()) != 1 {
		t.Errorf("Container layers = %v, want only the source image", img.Keys())
	}
}

func TestSegmentCustomOutputKey(t *testing.T) {
	img := imageContainer(t, 2, 2)

	fake := Func(func(plane *container.Layer) (*container.LabelArray, error) {
		return container.NewLabelArray(plane.Width, plane.Height), nil
	})

	params := DefaultParams().WithKey("nuclei")
	if err := Segment(img, "image", "model", fake, params); err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if _, err := img.Labels("nuclei"); err != nil {
		t.Errorf("Custom output layer missing: %v", err)
	}
}

func TestSegmentChannelSelection(t *testing.T) {
	c := container.New(2, 2)
	layer := container.NewLayer("image", 3, 2, 2, container.ImageAxes)
	if err := c.AddLayer(layer); err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}

	var gotChannels int
	fake := Func(func(plane *container.Layer) (*container.LabelArray, error) {
		gotChannels = plane.Channels
		return container.NewLabelArray(plane.Width, plane.Height), nil
	})

	if err := Segment(c, "image", "model", fake, DefaultParams().WithChannel(1)); err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if gotChannels != 1 {
		t.Errorf("Backend saw %d channels, want 1 after channel selection", gotChannels)
	}

	if err := Segment(c, "image", "model", fake, DefaultParams().WithKey("all")); err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if gotChannels != 3 {
		t.Errorf("Backend saw %d channels, want the full range without selection", gotChannels)
	}
}

func TestSegmentParallelMatchesSequential(t *testing.T) {
	// A content-driven model (one segment per tile wherever the tile has a
	// bright pixel) must produce identical merged masks regardless of the
	// worker count, because reconciliation stays ordered.
	build := func() *container.Container {
		c := container.New(4, 4)
		layer := container.NewLayer("image", 1, 4, 4, container.ImageAxes)
		layer.Set(0, 1, 1, 1)
		layer.Set(0, 3, 0, 1)
		layer.Set(0, 0, 3, 1)
		if err := c.AddLayer(layer); err != nil {
			t.Fatalf("AddLayer failed: %v", err)
		}
		return c
	}

	fake := Func(func(plane *container.Layer) (*container.LabelArray, error) {
		mask := container.NewLabelArray(plane.Width, plane.Height)
		for y := 0; y < plane.Height; y++ {
			for x := 0; x < plane.Width; x++ {
				if plane.At(0, x, y) > 0.5 {
					mask.Set(x, y, 1)
				}
			}
		}
		return mask, nil
	})

	seq := build()
	if err := Segment(seq, "image", "model", fake, DefaultParams().WithTiles(2, 2)); err != nil {
		t.Fatalf("Sequential Segment failed: %v", err)
	}
	par := build()
	if err := Segment(par, "image", "model", fake, DefaultParams().WithTiles(2, 2).WithWorkers(4)); err != nil {
		t.Fatalf("Parallel Segment failed: %v", err)
	}

	seqMask, err := seq.Labels("segmented_model")
	if err != nil {
		t.Fatalf("Sequential mask missing: %v", err)
	}
	parMask, err := par.Labels("segmented_model")
	if err != nil {
		t.Fatalf("Parallel mask missing: %v", err)
	}
	for i := range seqMask.Pixels {
		if seqMask.Pixels[i] != parMask.Pixels[i] {
			t.Fatalf("Masks diverge at pixel %d: %d vs %d", i, seqMask.Pixels[i], parMask.Pixels[i])
		}
	}
}
