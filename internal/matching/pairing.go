package matching

import (
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/discovery"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// DefaultMaxDistance is the largest canonical-name distance accepted as a match
const DefaultMaxDistance = 2

// PairFinder recovers which segmentation belongs to which original volume.
//
// Assignment is greedy in original discovery order: each original takes the
// closest unused segmentation within maxDistance, ties going to the first
// candidate in discovery order. This is not a globally optimal matching.
type PairFinder struct {
	distancer   Distancer
	maxDistance int
	logger      logger.Logger
}

// NewPairFinder creates a finder. A nil distancer selects LevenshteinDistance
// and a negative maxDistance selects DefaultMaxDistance.
func NewPairFinder(d Distancer, maxDistance int, log logger.Logger) *PairFinder {
	if d == nil {
		d = LevenshteinDistance{}
	}
	if maxDistance < 0 {
		maxDistance = DefaultMaxDistance
	}
	return &PairFinder{
		distancer:   d,
		maxDistance: maxDistance,
		logger:      logger.OrNop(log),
	}
}

// Find enumerates both directory trees and pairs their volumes
func (pf *PairFinder) Find(originalsDir, segmentationsDir string) ([]models.Pair, error) {
	originals, err := discovery.Enumerate(originalsDir)
	if err != nil {
		return nil, err
	}
	segmentations, err := discovery.Enumerate(segmentationsDir)
	if err != nil {
		return nil, err
	}

	pairs := pf.Match(originals, segmentations)

	pf.logger.Info("PairFinder", "pairs resolved", map[string]interface{}{
		"originals":     len(originals),
		"segmentations": len(segmentations),
		"pairs":         len(pairs),
	})
	return pairs, nil
}

// Match pairs two already-enumerated item lists. Unmatched originals and
// leftover segmentations are omitted from the result.
func (pf *PairFinder) Match(originals, segmentations []models.VolumeItem) []models.Pair {
	// one volume on each side: pair regardless of naming
	if len(originals) == 1 && len(segmentations) == 1 {
		return []models.Pair{{Original: originals[0], Segmentation: segmentations[0]}}
	}

	segKeys := make([]string, len(segmentations))
	for i, seg := range segmentations {
		segKeys[i] = CanonicalKey(seg)
	}
	used := make([]bool, len(segmentations))

	pairs := make([]models.Pair, 0, min(len(originals), len(segmentations)))
	for _, orig := range originals {
		key := CanonicalKey(orig)

		best := -1
		bestDist := pf.maxDistance + 1
		for i, segKey := range segKeys {
			if used[i] {
				continue
			}
			if d := pf.distancer.Distance(key, segKey); d < bestDist {
				best, bestDist = i, d
			}
		}

		if best < 0 {
			pf.logger.Debug("PairFinder", "no segmentation within distance", map[string]interface{}{
				"original":     orig.Path,
				"max_distance": pf.maxDistance,
			})
			continue
		}

		used[best] = true
		pairs = append(pairs, models.Pair{Original: orig, Segmentation: segmentations[best]})
	}

	if orphans := len(segmentations) - len(pairs); orphans > 0 {
		pf.logger.Debug("PairFinder", "segmentations left unpaired", map[string]interface{}{
			"count": orphans,
		})
	}
	return pairs
}
