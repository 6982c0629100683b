package segment

import (
	"tissue-segmenter/internal/container"
)

// ReconcileLabels renumbers per-tile labels so they stay globally unique when
// the tiles are merged. By convention each backend numbers segments 1..n
// locally within its tile; tile i's positive labels are shifted up by the
// cumulative segment count of all earlier tiles. Background (0) is never
// touched. The arrays are mutated in place.
//
// The offset only ever grows, so tiles with non-dense local labels (gaps)
// inflate later offsets but can never cause a collision.
func ReconcileLabels(tiles []*container.LabelArray) {
	var counter int32
	for _, tile := range tiles {
		numSegments := tile.Max()
		if counter > 0 {
			for i, v := range tile.Pixels {
				if v > 0 {
					tile.Pixels[i] = v + counter
				}
			}
		}
		counter += numSegments
	}
}
