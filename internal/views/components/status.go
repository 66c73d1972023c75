package components

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatusBar displays the session status and details about the loaded volumes
type StatusBar struct {
	container   *fyne.Container
	statusLabel *widget.Label
	volumeInfo  *widget.Label
	discardInfo *widget.Label
	loading     *widget.ProgressBarInfinite
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel("Open the originals and segmentations folders to begin")
	sb.volumeInfo = widget.NewLabel("No volume loaded")
	sb.discardInfo = widget.NewLabel("Discard folder: not set")
	sb.loading = widget.NewProgressBarInfinite()
	sb.loading.Stop()
	sb.loading.Hide()
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewBorder(nil, nil, nil, sb.loading,
		container.NewHBox(
			sb.statusLabel,
			widget.NewSeparator(),
			sb.volumeInfo,
			widget.NewSeparator(),
			sb.discardInfo,
		),
	)
}

func (sb *StatusBar) SetStatus(status string) {
	fyne.Do(func() {
		sb.statusLabel.SetText(status)
	})
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetVolumeInfo describes the shapes of the loaded original and segmentation
func (sb *StatusBar) SetVolumeInfo(original, segmentation []int) {
	fyne.Do(func() {
		sb.volumeInfo.SetText(fmt.Sprintf("Original %s | Segmentation %s", shapeString(original), shapeString(segmentation)))
	})
}

func (sb *StatusBar) SetDiscardDir(dir string) {
	fyne.Do(func() {
		if dir == "" {
			dir = "not set"
		}
		sb.discardInfo.SetText("Discard folder: " + dir)
	})
}

// SetLoading shows or hides the activity indicator
func (sb *StatusBar) SetLoading(active bool) {
	fyne.Do(func() {
		if active {
			sb.loading.Show()
			sb.loading.Start()
		} else {
			sb.loading.Stop()
			sb.loading.Hide()
		}
	})
}

func (sb *StatusBar) Reset() {
	fyne.Do(func() {
		sb.volumeInfo.SetText("No volume loaded")
	})
	sb.SetLoading(false)
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func shapeString(shape []int) string {
	if len(shape) == 0 {
		return "-"
	}
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, "x")
}
