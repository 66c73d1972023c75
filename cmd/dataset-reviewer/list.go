package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/matching"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

var errRootsUnset = errors.New("originals and segmentations folders must both be set")

// listPairs writes one JSON object per pair
func listPairs(w io.Writer, settings models.Settings, log logger.Logger) error {
	if settings.OriginalsDir == "" || settings.SegmentationsDir == "" {
		return errRootsUnset
	}

	d, err := matching.NewDistancer(settings.Metric)
	if err != nil {
		return err
	}

	pairs, err := matching.NewPairFinder(d, settings.MaxDistance, log).
		Find(settings.OriginalsDir, settings.SegmentationsDir)
	if err != nil {
		return fmt.Errorf("find pairs: %w", err)
	}

	enc := json.NewEncoder(w)
	for _, p := range pairs {
		if err := enc.Encode(p); err != nil {
			return err
		}
	}
	return nil
}
