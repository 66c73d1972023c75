package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// NavigationBar holds pair navigation, the slice slider, display controls and
// the discard actions.
type NavigationBar struct {
	container *fyne.Container

	prevButton        *widget.Button
	nextButton        *widget.Button
	positionLabel     *widget.Label
	sliceSlider       *widget.Slider
	sliceLabel        *widget.Label
	brightnessSlider  *widget.Slider
	contrastSlider    *widget.Slider
	overlayCheck      *widget.Check
	commentEntry      *widget.Entry
	discardButton     *widget.Button
	discardPairButton *widget.Button

	prevHandler        func()
	nextHandler        func()
	sliceHandler       func(int)
	displayHandler     func(brightness, contrast float64, overlay bool)
	discardHandler     func(comment string)
	discardPairHandler func(comment string)

	// set while widgets are updated programmatically so change callbacks stay quiet
	updating bool
}

func NewNavigationBar() *NavigationBar {
	nb := &NavigationBar{}
	nb.createComponents()
	nb.buildLayout()
	nb.setupEventHandlers()
	nb.EnablePairOperations(false)
	return nb
}

func (nb *NavigationBar) createComponents() {
	nb.prevButton = widget.NewButton("Prev", nil)
	nb.nextButton = widget.NewButton("Next", nil)
	nb.positionLabel = widget.NewLabel("0 / 0")

	nb.sliceSlider = widget.NewSlider(0, 0)
	nb.sliceSlider.Step = 1
	nb.sliceLabel = widget.NewLabel("Slice -")

	nb.brightnessSlider = widget.NewSlider(0, 1)
	nb.brightnessSlider.Step = 0.01
	nb.brightnessSlider.SetValue(0.5)
	nb.contrastSlider = widget.NewSlider(0, 1)
	nb.contrastSlider.Step = 0.01
	nb.contrastSlider.SetValue(0.5)
	nb.overlayCheck = widget.NewCheck("Overlay", nil)

	nb.commentEntry = widget.NewEntry()
	nb.commentEntry.SetPlaceHolder("Discard comment")

	nb.discardButton = widget.NewButton("Discard", nil)
	nb.discardButton.Importance = widget.DangerImportance
	nb.discardPairButton = widget.NewButton("Discard Pair", nil)
	nb.discardPairButton.Importance = widget.WarningImportance
}

func (nb *NavigationBar) buildLayout() {
	navSection := container.NewHBox(nb.prevButton, nb.positionLabel, nb.nextButton)

	sliceSection := container.NewBorder(nil, nil, nil, nb.sliceLabel, nb.sliceSlider)

	displaySection := container.NewGridWithColumns(3,
		container.NewBorder(nil, nil, widget.NewLabel("Brightness"), nil, nb.brightnessSlider),
		container.NewBorder(nil, nil, widget.NewLabel("Contrast"), nil, nb.contrastSlider),
		nb.overlayCheck,
	)

	discardSection := container.NewBorder(nil, nil, nil,
		container.NewHBox(nb.discardButton, nb.discardPairButton),
		nb.commentEntry,
	)

	nb.container = container.NewVBox(
		container.NewBorder(nil, nil, navSection, nil, sliceSection),
		displaySection,
		discardSection,
	)
}

func (nb *NavigationBar) setupEventHandlers() {
	nb.prevButton.OnTapped = func() {
		if nb.prevHandler != nil {
			nb.prevHandler()
		}
	}
	nb.nextButton.OnTapped = func() {
		if nb.nextHandler != nil {
			nb.nextHandler()
		}
	}

	nb.sliceSlider.OnChanged = func(v float64) {
		nb.sliceLabel.SetText(fmt.Sprintf("Slice %d / %d", int(v)+1, int(nb.sliceSlider.Max)+1))
		if !nb.updating && nb.sliceHandler != nil {
			nb.sliceHandler(int(v))
		}
	}

	display := func() {
		if !nb.updating && nb.displayHandler != nil {
			nb.displayHandler(nb.brightnessSlider.Value, nb.contrastSlider.Value, nb.overlayCheck.Checked)
		}
	}
	nb.brightnessSlider.OnChangeEnded = func(float64) { display() }
	nb.contrastSlider.OnChangeEnded = func(float64) { display() }
	nb.overlayCheck.OnChanged = func(bool) { display() }

	nb.discardButton.OnTapped = func() {
		if nb.discardHandler != nil {
			nb.discardHandler(nb.commentEntry.Text)
		}
	}
	nb.discardPairButton.OnTapped = func() {
		if nb.discardPairHandler != nil {
			nb.discardPairHandler(nb.commentEntry.Text)
		}
	}
}

func (nb *NavigationBar) SetPrevHandler(handler func()) { nb.prevHandler = handler }

func (nb *NavigationBar) SetNextHandler(handler func()) { nb.nextHandler = handler }

func (nb *NavigationBar) SetSliceHandler(handler func(int)) { nb.sliceHandler = handler }

func (nb *NavigationBar) SetDiscardHandler(handler func(comment string)) { nb.discardHandler = handler }

func (nb *NavigationBar) SetDiscardPairHandler(handler func(comment string)) {
	nb.discardPairHandler = handler
}

func (nb *NavigationBar) SetDisplayHandler(handler func(brightness, contrast float64, overlay bool)) {
	nb.displayHandler = handler
}

// SetPairPosition shows the 1-based cursor position; index -1 means none
func (nb *NavigationBar) SetPairPosition(index, total int) {
	fyne.Do(func() {
		nb.positionLabel.SetText(fmt.Sprintf("%d / %d", index+1, total))
		if index < 0 {
			nb.positionLabel.SetText(fmt.Sprintf("- / %d", total))
		}
		setEnabled(nb.prevButton, index > 0)
		setEnabled(nb.nextButton, index >= 0 && index < total-1)
	})
}

// SetSliceRange configures the slider for count slices and moves it to current
func (nb *NavigationBar) SetSliceRange(count, current int) {
	fyne.Do(func() {
		nb.updating = true
		defer func() { nb.updating = false }()

		nb.sliceSlider.Max = float64(max(count-1, 0))
		nb.sliceSlider.SetValue(float64(current))
		if count <= 1 {
			nb.sliceSlider.Disable()
		} else {
			nb.sliceSlider.Enable()
		}
		nb.sliceLabel.SetText(fmt.Sprintf("Slice %d / %d", current+1, max(count, 1)))
	})
}

// SetDisplay reflects stored display preferences without firing the handler
func (nb *NavigationBar) SetDisplay(brightness, contrast float64, overlay bool) {
	fyne.Do(func() {
		nb.updating = true
		defer func() { nb.updating = false }()

		nb.brightnessSlider.SetValue(brightness)
		nb.contrastSlider.SetValue(contrast)
		nb.overlayCheck.SetChecked(overlay)
	})
}

func (nb *NavigationBar) ClearComment() {
	fyne.Do(func() {
		nb.commentEntry.SetText("")
	})
}

// EnablePairOperations toggles every control that needs a current pair
func (nb *NavigationBar) EnablePairOperations(enabled bool) {
	fyne.Do(func() {
		setEnabled(nb.discardButton, enabled)
		setEnabled(nb.discardPairButton, enabled)
		if !enabled {
			nb.sliceSlider.Disable()
			nb.prevButton.Disable()
			nb.nextButton.Disable()
		}
	})
}

func (nb *NavigationBar) GetContainer() *fyne.Container {
	return nb.container
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}
