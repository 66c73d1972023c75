package matching

import (
	"strings"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/discovery"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// Suffixes are the annotation suffixes removed from base names, in priority order
var Suffixes = []string{"_segmentation", "_seg", "_mask", "_label"}

// StripSuffix removes at most one known annotation suffix from name
func StripSuffix(name string) string {
	for _, suf := range Suffixes {
		if strings.HasSuffix(name, suf) {
			return name[:len(name)-len(suf)]
		}
	}
	return name
}

// CanonicalKey is the name an item is matched on
func CanonicalKey(item models.VolumeItem) string {
	return StripSuffix(discovery.BaseName(item.Path))
}
