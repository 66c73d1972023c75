package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/config"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/controllers"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/loader"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/models"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/services"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/shutdown"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/views"
	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/watch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const (
	AppName    = "Medical Dataset Reviewer"
	AppID      = "io.github.mostafaabdelmegeed.dataset-reviewer"
	AppVersion = "1.0.0"
)

type Application struct {
	fyneApp fyne.App
	window  fyne.Window
	logger  logger.Logger

	controller    *controllers.ReviewController
	view          *views.MainView
	volumeService *services.VolumeService
	shutdown      *shutdown.Manager

	watchMu      sync.Mutex
	watcher      *watch.Watcher
	watchedRoots []string

	settingsPath string
}

func main() {
	configPath := flag.String("config", config.DefaultPath(), "settings file")
	list := flag.Bool("list", false, "print pairs as JSON lines and exit")
	originals := flag.String("originals", "", "originals folder (overrides settings)")
	segmentations := flag.String("segmentations", "", "segmentations folder (overrides settings)")
	flag.Parse()

	appLogger := logger.NewConsoleLogger(logger.LevelFromEnv())

	settings, err := config.Load(*configPath)
	if err != nil {
		appLogger.Warning("Main", "settings unreadable, using defaults", map[string]interface{}{
			"path":  *configPath,
			"error": err.Error(),
		})
	}
	if *originals != "" {
		settings.OriginalsDir = *originals
	}
	if *segmentations != "" {
		settings.SegmentationsDir = *segmentations
	}

	if *list {
		if err := listPairs(os.Stdout, settings, appLogger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	application, err := NewApplication(settings, *configPath, appLogger)
	if err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}
	application.Run()
}

// NewApplication wires models, services, controller and view
func NewApplication(settings models.Settings, settingsPath string, appLogger logger.Logger) (*Application, error) {
	fyneApp := app.NewWithID(AppID)
	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
	})

	window := fyneApp.NewWindow(AppName)
	window.Resize(windowSize(settings))
	window.CenterOnScreen()

	appLogger.Info("Main", "application starting", map[string]interface{}{
		"version":    AppVersion,
		"go_version": runtime.Version(),
		"config":     settingsPath,
		"workers":    settings.Workers,
		"cache_size": settings.CacheSize,
	})

	manager := shutdown.NewManager(appLogger)

	volumeService, err := services.NewVolumeService(loader.New(), settings.CacheSize, settings.Workers, appLogger)
	if err != nil {
		return nil, fmt.Errorf("volume service: %w", err)
	}
	manager.Register("volume service", volumeService)

	controller := controllers.NewReviewController(controllers.Options{
		Settings:     settings,
		SettingsPath: settingsPath,
		Logger:       appLogger,
	})

	view := views.NewMainView(manager.Context(), window, controller, volumeService, appLogger)
	controller.AddObserver(view)
	manager.Register("main view", view)

	application := &Application{
		fyneApp:       fyneApp,
		window:        window,
		logger:        appLogger,
		controller:    controller,
		view:          view,
		volumeService: volumeService,
		shutdown:      manager,
		settingsPath:  settingsPath,
	}

	if settings.Watch {
		controller.AddObserver(application)
		manager.Register("watcher", shutdown.Func(application.stopWatcher))
		application.restartWatcher(settings)
	}

	application.setupWindowEvents()
	return application, nil
}

// restartWatcher re-pairs on disk changes under either root. It replaces the
// running watcher when the roots have changed since it was started.
func (a *Application) restartWatcher(settings models.Settings) {
	roots := []string{settings.OriginalsDir, settings.SegmentationsDir}

	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watcher != nil && slices.Equal(roots, a.watchedRoots) {
		return
	}
	if a.watcher != nil {
		a.watcher.Shutdown()
		a.watcher = nil
	}

	w, err := watch.New(roots, watch.DefaultDebounce, func() {
		fyne.Do(func() {
			if err := a.controller.Reload(); err != nil {
				a.logger.Error("Main", err, map[string]interface{}{"operation": "reload"})
			}
		})
	}, a.logger)
	if err == nil {
		if err = w.Start(); err != nil {
			w.Shutdown()
		}
	}
	if err != nil {
		a.logger.Warning("Main", "folder watching disabled", map[string]interface{}{"error": err.Error()})
		return
	}
	a.watcher = w
	a.watchedRoots = roots
}

func (a *Application) stopWatcher() {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watcher != nil {
		a.watcher.Shutdown()
		a.watcher = nil
	}
}

// OnPairsChanged follows folder changes made from the menus
func (a *Application) OnPairsChanged([]models.Pair) {
	a.restartWatcher(a.controller.Settings())
}

func (a *Application) OnCurrentPairChanged(int, models.Pair) {}

func (a *Application) Run() {
	a.shutdown.Listen(func() {
		fyne.Do(a.fyneApp.Quit)
	})

	if err := a.controller.LoadPairs(); err != nil {
		a.view.ShowError("Load Pairs", err)
	}

	a.window.ShowAndRun()
	a.shutdown.Shutdown()
	a.logger.Info("Main", "application terminated", nil)
}

func (a *Application) setupWindowEvents() {
	a.window.SetCloseIntercept(func() {
		dialog.ShowConfirm("Exit Application", "Are you sure you want to exit?", func(confirmed bool) {
			if !confirmed {
				return
			}
			a.view.SaveWindowSize()
			a.window.Close()
		}, a.window)
	})
}

// windowSize restores the stored size or falls back to a default
func windowSize(settings models.Settings) fyne.Size {
	if len(settings.WindowSize) == 2 {
		return fyne.NewSize(float32(settings.WindowSize[0]), float32(settings.WindowSize[1]))
	}
	return fyne.NewSize(1200, 800)
}
