package views

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/render"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/services"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// Reviewer is the part of the review controller the window drives
type Reviewer interface {
	Settings() models.Settings
	SetOriginalsDir(dir string) error
	SetSegmentationsDir(dir string) error
	SetDiscardDir(dir string) error
	UpdateDisplay(brightness, contrast float64, overlay bool) error
	SetWindowSize(width, height int) error
	Next() bool
	Prev() bool
	SetSliceIndex(i int)
	DiscardCurrent(comment string) error
	DiscardCurrentPair(comment string) error
	Reload() error
}

type VolumeSource interface {
	LoadAsync(ctx context.Context, path string) <-chan services.LoadResult
}

// MainView is the review window. It observes the controller and renders the
// current pair side by side.
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	imageDisplay  *components.ImageDisplay
	navigation    *components.NavigationBar
	statusBar     *components.StatusBar

	reviewer Reviewer
	volumes  VolumeSource
	logger   logger.Logger
	ctx      context.Context

	// touched only on the fyne goroutine
	generation int
	pairIndex  int
	total      int
	pair       models.Pair
	original   *models.Volume
	mask       *models.Volume
	slice      int
	display    render.Display
	overlay    bool

	loadMu     sync.Mutex
	cancelLoad context.CancelFunc
}

func NewMainView(ctx context.Context, window fyne.Window, reviewer Reviewer, volumes VolumeSource, log logger.Logger) *MainView {
	if ctx == nil {
		ctx = context.Background()
	}
	settings := reviewer.Settings()
	mv := &MainView{
		window:    window,
		reviewer:  reviewer,
		volumes:   volumes,
		logger:    logger.OrNop(log),
		ctx:       ctx,
		pairIndex: -1,
		display:   render.DisplayFromSettings(settings),
		overlay:   settings.Overlay,
	}

	mv.initializeComponents()
	mv.buildLayout()
	mv.setupEventHandlers()
	mv.setupMenus()
	mv.setupShortcuts()

	mv.navigation.SetDisplay(settings.Brightness, settings.Contrast, settings.Overlay)
	mv.statusBar.SetDiscardDir(settings.DiscardDir)
	return mv
}

func (mv *MainView) initializeComponents() {
	mv.imageDisplay = components.NewImageDisplay()
	mv.navigation = components.NewNavigationBar()
	mv.statusBar = components.NewStatusBar()
}

func (mv *MainView) buildLayout() {
	bottom := container.NewVBox(
		mv.navigation.GetContainer(),
		widget.NewSeparator(),
		mv.statusBar.GetContainer(),
	)

	mv.mainContainer = container.NewBorder(nil, bottom, nil, nil, mv.imageDisplay.GetContainer())
	mv.window.SetContent(mv.mainContainer)
}

func (mv *MainView) setupEventHandlers() {
	mv.navigation.SetPrevHandler(func() { mv.reviewer.Prev() })
	mv.navigation.SetNextHandler(func() { mv.reviewer.Next() })

	mv.navigation.SetSliceHandler(func(index int) {
		mv.slice = index
		mv.reviewer.SetSliceIndex(index)
		mv.renderSlice()
	})

	mv.navigation.SetDisplayHandler(func(brightness, contrast float64, overlay bool) {
		if err := mv.reviewer.UpdateDisplay(brightness, contrast, overlay); err != nil {
			mv.logger.Error("MainView", err, map[string]interface{}{"operation": "save_display"})
		}
		mv.display.Brightness = brightness
		mv.display.Contrast = contrast
		mv.overlay = overlay
		mv.renderSlice()
	})

	mv.navigation.SetDiscardHandler(mv.discardSlice)
	mv.navigation.SetDiscardPairHandler(mv.confirmDiscardPair)
}

// setupMenus installs the File and Help menus
func (mv *MainView) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Originals Folder…", func() {
			mv.chooseFolder("Select Originals Folder", mv.reviewer.Settings().OriginalsDir, mv.reviewer.SetOriginalsDir)
		}),
		fyne.NewMenuItem("Open Segmentations Folder…", func() {
			mv.chooseFolder("Select Segmentations Folder", mv.reviewer.Settings().SegmentationsDir, mv.reviewer.SetSegmentationsDir)
		}),
		fyne.NewMenuItem("Set Discard Folder…", mv.chooseDiscardFolder),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reload Pairs", func() {
			if err := mv.reviewer.Reload(); err != nil {
				mv.ShowError("Reload", err)
			}
		}),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("Keyboard Shortcuts", func() {
			dialog.ShowInformation("Keyboard Shortcuts",
				"Left / Right: previous / next pair\nUp / Down: next / previous slice\nDelete: discard current slice",
				mv.window)
		}),
		fyne.NewMenuItem("About", func() {
			dialog.ShowInformation("About",
				"Medical Dataset Reviewer\nPairs original volumes with their segmentations for quality control.",
				mv.window)
		}),
	)

	// fyne appends Quit to the first menu
	mv.window.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}

func (mv *MainView) setupShortcuts() {
	mv.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if mv.window.Canvas().Focused() != nil {
			return
		}
		switch ev.Name {
		case fyne.KeyLeft:
			mv.reviewer.Prev()
		case fyne.KeyRight:
			mv.reviewer.Next()
		case fyne.KeyUp:
			mv.stepSlice(1)
		case fyne.KeyDown:
			mv.stepSlice(-1)
		case fyne.KeyDelete:
			mv.discardSlice("")
		}
	})
}

func (mv *MainView) stepSlice(delta int) {
	if mv.original == nil {
		return
	}
	next := models.ClampIndex(mv.slice+delta, mv.original.SliceCount())
	if next == mv.slice {
		return
	}
	mv.slice = next
	mv.reviewer.SetSliceIndex(next)
	mv.navigation.SetSliceRange(mv.original.SliceCount(), next)
	mv.renderSlice()
}

func (mv *MainView) chooseFolder(title, current string, apply func(string) error) {
	d := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			mv.ShowError(title, err)
			return
		}
		if uri == nil {
			return
		}
		if err := apply(uri.Path()); err != nil {
			mv.ShowError(title, err)
		}
	}, mv.window)
	d.SetTitleText(title)
	if current != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(current)); err == nil {
			d.SetLocation(lister)
		}
	}
	d.Show()
}

func (mv *MainView) chooseDiscardFolder() {
	mv.chooseFolder("Select Discard Folder", mv.reviewer.Settings().DiscardDir, func(dir string) error {
		if err := mv.reviewer.SetDiscardDir(dir); err != nil {
			return err
		}
		mv.statusBar.SetDiscardDir(dir)
		return nil
	})
}

// discardSlice copies the displayed segmentation slice to the discard folder.
// Under the move policy it becomes a confirmed whole-pair discard.
func (mv *MainView) discardSlice(comment string) {
	if mv.pairIndex < 0 {
		return
	}
	settings := mv.reviewer.Settings()
	if settings.DiscardDir == "" {
		mv.promptDiscardFolder()
		return
	}
	if settings.DiscardPolicy == models.DiscardMove {
		mv.confirmDiscardPair(comment)
		return
	}
	before := mv.pairIndex
	if err := mv.reviewer.DiscardCurrent(comment); err != nil {
		mv.ShowError("Discard", err)
		return
	}
	mv.navigation.ClearComment()
	if mv.pairIndex == before {
		mv.statusBar.SetStatus(fmt.Sprintf("Discarded slice %d of %s", mv.slice, filepath.Base(mv.pair.Segmentation.Path)))
	}
}

func (mv *MainView) confirmDiscardPair(comment string) {
	if mv.pairIndex < 0 {
		return
	}
	if mv.reviewer.Settings().DiscardDir == "" {
		mv.promptDiscardFolder()
		return
	}
	name := filepath.Base(mv.pair.Segmentation.Path)
	dialog.ShowConfirm("Discard Pair",
		fmt.Sprintf("Move %s to the discard folder and drop the pair from this session?", name),
		func(ok bool) {
			if !ok {
				return
			}
			if err := mv.reviewer.DiscardCurrentPair(comment); err != nil {
				mv.ShowError("Discard Pair", err)
				return
			}
			mv.navigation.ClearComment()
			mv.statusBar.SetStatus("Discarded " + name)
		}, mv.window)
}

func (mv *MainView) promptDiscardFolder() {
	dialog.ShowConfirm("No Discard Folder",
		"A discard folder must be set before discarding. Choose one now?",
		func(ok bool) {
			if ok {
				mv.chooseDiscardFolder()
			}
		}, mv.window)
}

// OnPairsChanged implements controllers.Observer
func (mv *MainView) OnPairsChanged(pairs []models.Pair) {
	total := len(pairs)
	fyne.Do(func() {
		mv.total = total
		mv.navigation.SetPairPosition(mv.pairIndex, total)
		if total == 0 {
			mv.statusBar.SetStatus("No pairs found")
		} else {
			mv.statusBar.SetStatus(fmt.Sprintf("%d pairs", total))
		}
	})
}

// OnCurrentPairChanged implements controllers.Observer
func (mv *MainView) OnCurrentPairChanged(index int, pair models.Pair) {
	fyne.Do(func() {
		mv.showPair(index, pair)
	})
}

func (mv *MainView) showPair(index int, pair models.Pair) {
	mv.generation++
	gen := mv.generation
	mv.pairIndex = index
	mv.pair = pair
	mv.original = nil
	mv.mask = nil
	mv.slice = 0

	mv.navigation.SetPairPosition(index, mv.total)
	mv.navigation.EnablePairOperations(index >= 0)

	if index < 0 {
		mv.stopLoad()
		mv.imageDisplay.ClearImages()
		mv.navigation.SetSliceRange(0, 0)
		mv.statusBar.SetVolumeInfo(nil, nil)
		mv.statusBar.SetLoading(false)
		mv.window.SetTitle("Medical Dataset Reviewer")
		return
	}

	mv.window.SetTitle("Medical Dataset Reviewer - " + filepath.Base(pair.Original.Path))
	mv.statusBar.SetLoading(true)
	mv.statusBar.SetStatus("Loading " + filepath.Base(pair.Original.Path))
	mv.loadPair(gen, pair)
}

func (mv *MainView) loadPair(gen int, pair models.Pair) {
	ctx := mv.startLoad()
	origCh := mv.volumes.LoadAsync(ctx, pair.Original.Path)
	segCh := mv.volumes.LoadAsync(ctx, pair.Segmentation.Path)

	go func() {
		orig := <-origCh
		seg := <-segCh
		if ctx.Err() != nil {
			return
		}
		fyne.Do(func() {
			mv.applyLoaded(gen, orig, seg)
		})
	}()
}

func (mv *MainView) applyLoaded(gen int, orig, seg services.LoadResult) {
	// a newer pair was selected while this one loaded
	if gen != mv.generation {
		return
	}
	mv.statusBar.SetLoading(false)

	if err := errors.Join(orig.Err, seg.Err); err != nil {
		mv.logger.Error("MainView", err, map[string]interface{}{"pair": mv.pair.String()})
		mv.imageDisplay.ClearImages()
		mv.statusBar.SetStatus("Failed to load pair")
		mv.ShowError("Load Pair", err)
		return
	}

	mv.original = orig.Volume
	mv.mask = seg.Volume
	count := mv.original.SliceCount()
	mv.slice = count / 2
	mv.reviewer.SetSliceIndex(mv.slice)

	mv.navigation.SetSliceRange(count, mv.slice)
	mv.statusBar.SetVolumeInfo(mv.original.Shape, mv.mask.Shape)
	mv.statusBar.SetStatus(mv.pair.String())
	mv.renderSlice()
}

func (mv *MainView) renderSlice() {
	if mv.original == nil || mv.mask == nil {
		return
	}

	left, err := render.SliceImage(mv.original, mv.slice, mv.display)
	if err != nil {
		mv.ShowError("Render", err)
		return
	}
	origName := filepath.Base(mv.pair.Original.Path)
	mv.imageDisplay.SetOriginal(left, fmt.Sprintf("%s [%d]", origName, mv.slice))

	right, caption, err := mv.renderRight()
	if err != nil {
		mv.ShowError("Render", err)
		return
	}
	mv.imageDisplay.SetSegmentation(right, caption)
}

func (mv *MainView) renderRight() (image.Image, string, error) {
	name := filepath.Base(mv.pair.Segmentation.Path)
	caption := fmt.Sprintf("%s [%d]", name, models.ClampIndex(mv.slice, mv.mask.SliceCount()))

	if mv.overlay {
		img, err := render.OverlayImage(mv.original, mv.mask, mv.slice, mv.display)
		if err == nil {
			return img, caption + " overlay", nil
		}
		if !errors.Is(err, render.ErrShapeMismatch) {
			return nil, "", err
		}
		mv.logger.Debug("MainView", "overlay skipped", map[string]interface{}{"reason": err.Error()})
	}

	img, err := render.SliceImage(mv.mask, mv.slice, mv.display)
	return img, caption, err
}

func (mv *MainView) startLoad() context.Context {
	mv.loadMu.Lock()
	defer mv.loadMu.Unlock()
	if mv.cancelLoad != nil {
		mv.cancelLoad()
	}
	ctx, cancel := context.WithCancel(mv.ctx)
	mv.cancelLoad = cancel
	return ctx
}

func (mv *MainView) stopLoad() {
	mv.loadMu.Lock()
	defer mv.loadMu.Unlock()
	if mv.cancelLoad != nil {
		mv.cancelLoad()
		mv.cancelLoad = nil
	}
}

// SaveWindowSize persists the current canvas size
func (mv *MainView) SaveWindowSize() {
	size := mv.window.Canvas().Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	if err := mv.reviewer.SetWindowSize(int(size.Width), int(size.Height)); err != nil {
		mv.logger.Error("MainView", err, map[string]interface{}{"operation": "save_window_size"})
	}
}

// Shutdown cancels any in-flight volume load
func (mv *MainView) Shutdown() {
	mv.stopLoad()
}

func (mv *MainView) ShowError(title string, err error) {
	mv.logger.Warning("MainView", title, map[string]interface{}{"error": err.Error()})
	fyne.Do(func() {
		dialog.ShowError(fmt.Errorf("%s: %w", title, err), mv.window)
	})
}

func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

func (mv *MainView) GetContainer() *fyne.Container {
	return mv.mainContainer
}
