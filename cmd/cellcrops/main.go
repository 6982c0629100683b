// Command cellcrops extracts one crop per segment from a segmented image.
// The mask is the 16-bit label PNG written by segrun.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"tissue-segmenter/internal/container"
	"tissue-segmenter/internal/render"
	"tissue-segmenter/internal/segment"
	"tissue-segmenter/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to the source microscopy image")
	maskPath := flag.String("mask", "", "Path to the 16-bit label mask PNG")
	width := flag.Int("width", segment.DefaultCropSize, "Crop width in pixels")
	height := flag.Int("height", segment.DefaultCropSize, "Crop height in pixels")
	outDir := flag.String("out", "crops", "Output directory for per-segment crops")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("cellcrops v%s", version.Version)

	if *imagePath == "" || *maskPath == "" {
		fmt.Println("Usage: cellcrops -image <path> -mask <mask.png> [-width N -height N] [-out dir]")
		os.Exit(1)
	}

	img, err := container.LoadImage(*imagePath, "image")
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	labels, err := loadMask(*maskPath)
	if err != nil {
		log.Fatalf("Failed to load mask: %v", err)
	}
	if err := img.AddLabels("segments", labels, "mask"); err != nil {
		log.Fatalf("Mask does not fit the image: %v", err)
	}

	crops, err := segment.SegmentCrops(img, "image", "segments", *width, *height)
	if err != nil {
		log.Fatalf("Failed to extract crops: %v", err)
	}
	log.Printf("Extracted %d segment crops", len(crops))

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	for i, crop := range crops {
		path := filepath.Join(*outDir, fmt.Sprintf("segment_%04d.png", i+1))
		if err := writePNG(path, render.LayerImage(&crop.Layer)); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
	}
	log.Printf("Wrote crops to %s", *outDir)
}

func loadMask(path string) (*container.LabelArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mask: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mask: %w", err)
	}
	return render.LabelsFromGray16(img), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
