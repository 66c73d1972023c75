package components

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 512
	ImageAreaHeight = 512
)

// ImageDisplay shows the original slice and the segmentation slice side by side
type ImageDisplay struct {
	container         *fyne.Container
	originalImage     *canvas.Image
	segmentationImage *canvas.Image
	originalCaption   *widget.Label
	segCaption        *widget.Label
	splitView         *container.Split

	placeholder image.Image

	hasOriginal     bool
	hasSegmentation bool
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.createComponents()
	display.setupLayout()
	return display
}

func (id *ImageDisplay) createComponents() {
	id.placeholder = placeholderImage()

	id.originalImage = newSliceCanvas(id.placeholder)
	id.segmentationImage = newSliceCanvas(id.placeholder)

	id.originalCaption = widget.NewLabel("No pair selected")
	id.originalCaption.Truncation = fyne.TextTruncateEllipsis
	id.segCaption = widget.NewLabel("")
	id.segCaption.Truncation = fyne.TextTruncateEllipsis
}

func newSliceCanvas(img image.Image) *canvas.Image {
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	// medical slices are small; nearest-neighbour keeps voxel edges visible
	c.ScaleMode = canvas.ImageScalePixels
	c.SetMinSize(fyne.NewSize(ImageAreaWidth/2, ImageAreaHeight/2))
	return c
}

func placeholderImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, ImageAreaWidth, ImageAreaHeight))
	for i := range img.Pix {
		img.Pix[i] = 24
	}
	return img
}

func (id *ImageDisplay) setupLayout() {
	pane := func(title string, caption *widget.Label, img *canvas.Image) *fyne.Container {
		return container.NewBorder(
			container.NewVBox(widget.NewRichTextFromMarkdown("**"+title+"**"), caption),
			nil, nil, nil,
			container.NewStack(canvas.NewRectangle(color.Black), img),
		)
	}

	id.splitView = container.NewHSplit(
		pane("Original", id.originalCaption, id.originalImage),
		pane("Segmentation", id.segCaption, id.segmentationImage),
	)
	id.splitView.SetOffset(0.5)

	id.container = container.NewStack(id.splitView)
}

// SetOriginal shows img in the left pane; nil restores the placeholder
func (id *ImageDisplay) SetOriginal(img image.Image, caption string) {
	fyne.Do(func() {
		id.hasOriginal = img != nil
		if img == nil {
			img = id.placeholder
		}
		id.originalImage.Image = img
		id.originalImage.Refresh()
		id.originalCaption.SetText(caption)
	})
}

// SetSegmentation shows img in the right pane; nil restores the placeholder
func (id *ImageDisplay) SetSegmentation(img image.Image, caption string) {
	fyne.Do(func() {
		id.hasSegmentation = img != nil
		if img == nil {
			img = id.placeholder
		}
		id.segmentationImage.Image = img
		id.segmentationImage.Refresh()
		id.segCaption.SetText(caption)
	})
}

func (id *ImageDisplay) HasOriginalImage() bool {
	return id.hasOriginal
}

func (id *ImageDisplay) HasSegmentationImage() bool {
	return id.hasSegmentation
}

// ClearImages resets both panes
func (id *ImageDisplay) ClearImages() {
	id.SetOriginal(nil, "No pair selected")
	id.SetSegmentation(nil, "")
}

func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}
