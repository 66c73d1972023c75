package controllers

import (
	"errors"
	"sync"
	"time"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/config"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/discard"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/matching"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
)

// Observer receives session changes. Callbacks run on the goroutine that
// triggered the change; GUI observers must marshal onto their own thread.
type Observer interface {
	OnPairsChanged(pairs []models.Pair)
	// index is -1 and pair is zero when the session has no current pair
	OnCurrentPairChanged(index int, pair models.Pair)
}

type Options struct {
	Settings models.Settings
	// SettingsPath is where settings are saved on change; empty disables saving
	SettingsPath string
	SeriesFiles  func(dir string) ([]string, error)
	Logger       logger.Logger
	Now          func() time.Time
}

// ReviewController owns a review session: the pair list, the cursor into it,
// the displayed slice and the persisted settings.
type ReviewController struct {
	mu           sync.RWMutex
	settings     models.Settings
	settingsPath string
	sliceIndex   int

	pairs       *models.PairRepository
	seriesFiles func(dir string) ([]string, error)
	now         func() time.Time
	logger      logger.Logger

	observerMu sync.RWMutex
	observers  []Observer
}

func NewReviewController(opts Options) *ReviewController {
	return &ReviewController{
		settings:     opts.Settings,
		settingsPath: opts.SettingsPath,
		pairs:        models.NewPairRepository(),
		seriesFiles:  opts.SeriesFiles,
		now:          opts.Now,
		logger:       logger.OrNop(opts.Logger),
	}
}

// AddObserver registers o for session notifications
func (rc *ReviewController) AddObserver(o Observer) {
	rc.observerMu.Lock()
	defer rc.observerMu.Unlock()
	rc.observers = append(rc.observers, o)
}

// Settings returns a copy of the current settings
func (rc *ReviewController) Settings() models.Settings {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	s := rc.settings
	s.WindowSize = append([]int(nil), rc.settings.WindowSize...)
	return s
}

// SetOriginalsDir stores the originals root, saves settings and re-pairs
func (rc *ReviewController) SetOriginalsDir(dir string) error {
	saveErr := rc.updateSettings(func(s *models.Settings) { s.OriginalsDir = dir })
	return errors.Join(saveErr, rc.LoadPairs())
}

// SetSegmentationsDir stores the segmentations root, saves settings and re-pairs
func (rc *ReviewController) SetSegmentationsDir(dir string) error {
	saveErr := rc.updateSettings(func(s *models.Settings) { s.SegmentationsDir = dir })
	return errors.Join(saveErr, rc.LoadPairs())
}

// SetDiscardDir stores the discard root and saves settings
func (rc *ReviewController) SetDiscardDir(dir string) error {
	return rc.updateSettings(func(s *models.Settings) { s.DiscardDir = dir })
}

// UpdateDisplay persists the display preferences
func (rc *ReviewController) UpdateDisplay(brightness, contrast float64, overlay bool) error {
	return rc.updateSettings(func(s *models.Settings) {
		s.Brightness = brightness
		s.Contrast = contrast
		s.Overlay = overlay
	})
}

// SetWindowSize persists the main window size
func (rc *ReviewController) SetWindowSize(width, height int) error {
	return rc.updateSettings(func(s *models.Settings) { s.WindowSize = []int{width, height} })
}

func (rc *ReviewController) updateSettings(mutate func(*models.Settings)) error {
	rc.mu.Lock()
	mutate(&rc.settings)
	s := rc.settings
	path := rc.settingsPath
	rc.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := config.Save(path, s); err != nil {
		rc.logger.Error("ReviewController", err, map[string]interface{}{"path": path})
		return err
	}
	return nil
}

// LoadPairs re-pairs the two roots and moves the cursor to the first pair.
// Nothing happens while either root is unset.
func (rc *ReviewController) LoadPairs() error {
	return rc.loadPairs(false)
}

// Reload re-pairs the two roots and keeps the cursor on the current pair when
// it still exists.
func (rc *ReviewController) Reload() error {
	return rc.loadPairs(true)
}

func (rc *ReviewController) loadPairs(keepCurrent bool) error {
	s := rc.Settings()
	if s.OriginalsDir == "" || s.SegmentationsDir == "" {
		return nil
	}

	d, err := matching.NewDistancer(s.Metric)
	if err != nil {
		return err
	}
	pairs, err := matching.NewPairFinder(d, s.MaxDistance, rc.logger).Find(s.OriginalsDir, s.SegmentationsDir)
	if err != nil {
		return err
	}

	previous, hadCurrent := rc.pairs.Current()
	rc.pairs.Replace(pairs)
	if keepCurrent && hadCurrent {
		if i := rc.pairs.Find(previous); i >= 0 {
			rc.pairs.SetIndex(i)
		}
	}

	rc.mu.Lock()
	rc.sliceIndex = 0
	rc.mu.Unlock()

	rc.notifyPairs()
	rc.notifyCurrent()
	return nil
}

// Pairs returns a copy of the session's pair list
func (rc *ReviewController) Pairs() []models.Pair {
	return rc.pairs.Pairs()
}

// CurrentIndex returns the cursor, -1 when there is no pair
func (rc *ReviewController) CurrentIndex() int {
	return rc.pairs.Index()
}

func (rc *ReviewController) CurrentPair() (models.Pair, bool) {
	return rc.pairs.Current()
}

// Next advances to the following pair; false at the end of the list
func (rc *ReviewController) Next() bool {
	return rc.Select(rc.pairs.Index() + 1)
}

// Prev steps back to the preceding pair; false at the start of the list
func (rc *ReviewController) Prev() bool {
	return rc.Select(rc.pairs.Index() - 1)
}

// Select moves the cursor to index; false when out of range or unchanged
func (rc *ReviewController) Select(index int) bool {
	if !rc.pairs.SetIndex(index) {
		return false
	}
	rc.mu.Lock()
	rc.sliceIndex = 0
	rc.mu.Unlock()

	rc.notifyCurrent()
	return true
}

// SetSliceIndex records the slice currently shown
func (rc *ReviewController) SetSliceIndex(i int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.sliceIndex = i
}

func (rc *ReviewController) SliceIndex() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.sliceIndex
}

// DiscardCurrent rejects the current segmentation, or its current slice for a
// series, and keeps the pair in the session. With the move policy it behaves
// as DiscardCurrentPair. Without a current pair or discard root it does nothing.
func (rc *ReviewController) DiscardCurrent(comment string) error {
	if rc.Settings().DiscardPolicy == models.DiscardMove {
		return rc.DiscardCurrentPair(comment)
	}

	pair, ok := rc.pairs.Current()
	if !ok {
		return nil
	}
	err := rc.workflow().Discard(pair, rc.SliceIndex(), comment)
	if errors.Is(err, discard.ErrNoDiscardRoot) {
		rc.logger.Debug("ReviewController", "discard skipped, no discard directory", nil)
		return nil
	}
	return err
}

// DiscardCurrentPair moves the current segmentation out of the dataset and
// drops the pair from the session. The cursor lands on the following pair.
func (rc *ReviewController) DiscardCurrentPair(comment string) error {
	pair, ok := rc.pairs.Current()
	if !ok {
		return nil
	}
	err := rc.workflow().DiscardPair(pair, comment)
	if errors.Is(err, discard.ErrNoDiscardRoot) {
		rc.logger.Debug("ReviewController", "discard skipped, no discard directory", nil)
		return nil
	}
	if err != nil {
		return err
	}

	rc.pairs.RemoveCurrent()
	rc.mu.Lock()
	rc.sliceIndex = 0
	rc.mu.Unlock()

	rc.notifyPairs()
	rc.notifyCurrent()
	return nil
}

func (rc *ReviewController) workflow() *discard.Workflow {
	s := rc.Settings()
	return discard.NewWorkflow(discard.Options{
		SegmentationsRoot: s.SegmentationsDir,
		DiscardRoot:       s.DiscardDir,
		AuditLog:          s.AuditLog,
		SeriesFiles:       rc.seriesFiles,
		Now:               rc.now,
		Logger:            rc.logger,
	})
}

func (rc *ReviewController) snapshotObservers() []Observer {
	rc.observerMu.RLock()
	defer rc.observerMu.RUnlock()
	return append([]Observer(nil), rc.observers...)
}

func (rc *ReviewController) notifyPairs() {
	pairs := rc.pairs.Pairs()
	for _, o := range rc.snapshotObservers() {
		o.OnPairsChanged(pairs)
	}
}

func (rc *ReviewController) notifyCurrent() {
	index := rc.pairs.Index()
	pair, _ := rc.pairs.Current()
	for _, o := range rc.snapshotObservers() {
		o.OnCurrentPairChanged(index, pair)
	}
}
