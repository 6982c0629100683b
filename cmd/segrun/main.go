// Command segrun segments a microscopy image and writes the resulting mask.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tissue-segmenter/internal/container"
	"tissue-segmenter/internal/project"
	"tissue-segmenter/internal/render"
	"tissue-segmenter/internal/segment"
	"tissue-segmenter/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to microscopy image (TIFF, PNG, or JPEG)")
	backend := flag.String("backend", "watershed", "Segmentation backend: blob or watershed")
	method := flag.String("method", "log", "Blob method: log, dog, or doh (blob backend only)")
	paramsPath := flag.String("params", "", "YAML parameter file (explicit flags still win)")
	thresh := flag.Float64("thresh", 0.5, "Foreground threshold (watershed backend)")
	geq := flag.Bool("geq", true, "Pixels >= thresh are foreground (false: < thresh)")
	channel := flag.Int("channel", -1, "Channel to segment (-1 = all channels)")
	tileWidth := flag.Int("tile-width", 0, "Tile width in pixels (0 = whole image)")
	tileHeight := flag.Int("tile-height", 0, "Tile height in pixels (0 = whole image)")
	workers := flag.Int("workers", 1, "Parallel tile workers")
	maskOut := flag.String("mask", "mask.png", "Output path for the 16-bit label mask PNG")
	overlayOut := flag.String("overlay", "", "Optional output path for a colored overlay PNG")
	projectOut := flag.String("project", "", "Optional output path for a run record (.segproj)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("segrun v%s", version.Version)

	if *imagePath == "" {
		fmt.Println("Usage: segrun -image <path> [-backend blob|watershed] [-tile-width N -tile-height N]")
		os.Exit(1)
	}
	if !container.IsSupportedFormat(*imagePath) {
		log.Fatalf("unsupported image format %q, want one of %s",
			filepath.Ext(*imagePath), strings.Join(container.SupportedFormats(), ", "))
	}

	params := segment.DefaultParams()
	if *paramsPath != "" {
		var err error
		params, err = segment.LoadParams(*paramsPath)
		if err != nil {
			log.Fatalf("Failed to load params: %v", err)
		}
	}
	// Flags given on the command line override the params file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "thresh":
			params.Thresh = *thresh
		case "geq":
			params.Geq = *geq
		case "tile-width":
			params.TileWidth = *tileWidth
		case "tile-height":
			params.TileHeight = *tileHeight
		case "workers":
			params.Workers = *workers
		case "channel":
			if *channel >= 0 {
				params = params.WithChannel(*channel)
			}
		}
	})

	img, err := container.LoadImage(*imagePath, "image")
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}
	shape := img.Shape()
	log.Printf("Loaded %dx%d image", shape.Width, shape.Height)
	if img.MicronsPerPixel > 0 {
		log.Printf("Pixel size: %.3f um", img.MicronsPerPixel)
	}

	var modelRef any
	if *backend == "blob" {
		modelRef = *method
	}
	if err := segment.Segment(img, "image", *backend, modelRef, params); err != nil {
		log.Fatalf("Segmentation failed: %v", err)
	}

	maskKey := params.KeyAdded
	if maskKey == "" {
		maskKey = "segmented_" + *backend
	}
	labels, err := img.Labels(maskKey)
	if err != nil {
		log.Fatalf("Failed to read mask layer: %v", err)
	}
	segments := labels.Distinct()
	log.Printf("Found %d segments", len(segments))

	if err := writeMask(*maskOut, labels); err != nil {
		log.Fatalf("Failed to write mask: %v", err)
	}
	log.Printf("Wrote mask to %s", *maskOut)

	if *overlayOut != "" {
		src, err := img.Layer("image")
		if err != nil {
			log.Fatalf("Failed to read source layer: %v", err)
		}
		overlay, err := render.Overlay(src, labels, 0.5)
		if err != nil {
			log.Fatalf("Failed to render overlay: %v", err)
		}
		if err := writePNG(*overlayOut, overlay); err != nil {
			log.Fatalf("Failed to write overlay: %v", err)
		}
		log.Printf("Wrote overlay to %s", *overlayOut)
	}

	if *projectOut != "" {
		proj := project.New(strings.TrimSuffix(filepath.Base(*imagePath), filepath.Ext(*imagePath)), *backend)
		proj.SetImage(*projectOut, *imagePath)
		proj.ParamsPath = *paramsPath
		proj.MaskLayer = maskKey
		proj.MaskPath = *maskOut
		proj.Segments = len(segments)
		proj.MicronsPerPixel = img.MicronsPerPixel
		if *backend == "blob" {
			proj.ModelName = *method
		}
		if err := proj.Save(*projectOut); err != nil {
			log.Fatalf("Failed to write project: %v", err)
		}
		log.Printf("Wrote run record to %s", *projectOut)
	}
}

func writeMask(path string, labels *container.LabelArray) error {
	img, err := render.MaskGray16(labels)
	if err != nil {
		return err
	}
	return writePNG(path, img)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
