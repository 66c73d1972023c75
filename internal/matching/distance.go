package matching

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// Distancer scores how far apart two canonical names are. Lower is closer and
// Distance(a, a) is 0.
type Distancer interface {
	Distance(a, b string) int
}

// LevenshteinDistance is the exact edit distance over runes
type LevenshteinDistance struct{}

func (LevenshteinDistance) Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// RatioDistance estimates an edit distance from the sequence-matcher similarity
// ratio: round((1 - ratio) * max(len(a), len(b))). It is only approximately
// symmetric.
type RatioDistance struct{}

func (RatioDistance) Distance(a, b string) int {
	if a == b {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	m := difflib.NewMatcher(runes(a), runes(b))
	d := int(math.Round((1 - m.Ratio()) * float64(longest)))
	return min(max(d, 0), longest)
}

func runes(s string) []string {
	return strings.Split(s, "")
}

// NewDistancer picks the implementation for a configured metric name.
// An empty name selects the exact edit distance.
func NewDistancer(metric string) (Distancer, error) {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "", models.MetricLevenshtein:
		return LevenshteinDistance{}, nil
	case models.MetricRatio:
		return RatioDistance{}, nil
	default:
		return nil, fmt.Errorf("unknown distance metric %q", metric)
	}
}
