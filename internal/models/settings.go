package models

// Discard policies
const (
	DiscardCopy = "copy"
	DiscardMove = "move"
)

// Distance metrics
const (
	MetricLevenshtein = "levenshtein"
	MetricRatio       = "ratio"
)

// Settings is the persisted application configuration
type Settings struct {
	OriginalsDir     string  `yaml:"originals_dir,omitempty"`
	SegmentationsDir string  `yaml:"segmentations_dir,omitempty"`
	DiscardDir       string  `yaml:"discard_dir,omitempty"`
	WindowSize       []int   `yaml:"window_size,omitempty,flow"`
	Brightness       float64 `yaml:"brightness"`
	Contrast         float64 `yaml:"contrast"`
	Overlay          bool    `yaml:"overlay"`

	MaxDistance   int    `yaml:"max_distance"`
	Metric        string `yaml:"metric"`
	AuditLog      string `yaml:"audit_log"`
	DiscardPolicy string `yaml:"discard_policy"`
	CacheSize     int    `yaml:"cache_size"`
	Workers       int    `yaml:"workers"`
	Watch         bool   `yaml:"watch"`
}

// DefaultSettings returns the configuration used when no settings file exists
func DefaultSettings() Settings {
	return Settings{
		Brightness:    0.5,
		Contrast:      0.5,
		MaxDistance:   2,
		Metric:        MetricLevenshtein,
		AuditLog:      "discard_log.csv",
		DiscardPolicy: DiscardCopy,
		CacheSize:     8,
		Workers:       2,
		Watch:         true,
	}
}
