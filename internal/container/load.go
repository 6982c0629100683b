package container

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"
)

// LoadImage decodes an image file (TIFF, PNG, or JPEG) into a fresh container
// holding it as a layer under key. Grayscale sources produce a single-channel
// layer, color sources three channels (R, G, B), values scaled to [0, 1].
// For TIFF sources the resolution tags are used to fill in MicronsPerPixel.
func LoadImage(path, key string) (*Container, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	c := New(width, height)

	var layer *Layer
	if gray, ok := img.(*image.Gray); ok {
		layer = NewLayer(key, 1, width, height, ImageAxes)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				layer.Set(0, x, y, float32(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)/255)
			}
		}
	} else {
		layer = NewLayer(key, 3, width, height, ImageAxes)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				layer.Set(0, x, y, float32(r)/65535)
				layer.Set(1, x, y, float32(g)/65535)
				layer.Set(2, x, y, float32(b)/65535)
			}
		}
	}
	if err := c.AddLayer(layer); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if um, err := extractTIFFPixelSize(path); err == nil {
			c.MicronsPerPixel = um
		}
	}
	return c, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// extractTIFFPixelSize reads the TIFF resolution tags and converts them to a
// physical pixel size in microns. Microscopy exports usually record
// pixels-per-centimeter; pixels-per-inch is handled as well.
func extractTIFFPixelSize(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		byteOrder = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = 2 // inches unless told otherwise

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case 282: // XResolution
			if fieldType == 5 { // RATIONAL
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 283: // YResolution
			if fieldType == 5 {
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT
				resUnit = uint16(valueOffset)
			}
		}
	}

	res := xRes
	if res == 0 {
		res = yRes
	}
	if res == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}

	// Convert pixels-per-unit to microns-per-pixel.
	switch resUnit {
	case 3: // centimeters
		return 10000 / res, nil
	default: // inches
		return 25400 / res, nil
	}
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
