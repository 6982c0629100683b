// Package segment partitions image layers into labeled regions. It dispatches
// to one of several interchangeable backends, runs them per tile, renumbers
// per-tile labels so they stay globally unique, and stitches the results back
// into one image-aligned mask stored as a new container layer.
package segment

import (
	"fmt"
)

// Backend selects the segmentation strategy.
type Backend int

const (
	// BackendBlob detects roughly circular bright regions with multi-scale
	// blob detection (log, dog or doh response).
	BackendBlob Backend = iota
	// BackendWatershed splits touching objects with distance-transform
	// seeded, marker-controlled region growing.
	BackendWatershed
	// BackendModel delegates to an externally supplied trained model.
	BackendModel
)

func (b Backend) String() string {
	switch b {
	case BackendBlob:
		return "blob"
	case BackendWatershed:
		return "watershed"
	case BackendModel:
		return "model"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// ParseBackend resolves a backend selector string to a Backend value.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "blob":
		return BackendBlob, nil
	case "watershed":
		return BackendWatershed, nil
	case "model":
		return BackendModel, nil
	default:
		return 0, fmt.Errorf("unrecognized segmentation backend %q", s)
	}
}
