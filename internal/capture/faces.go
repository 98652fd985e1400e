package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"time"

	pigo "github.com/esimov/pigo/core"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	FaceLabel       = "Face Detected"
	timestampLayout = "2006-01-02 15:04:05"
	minQuality      = 5.0
)

// ErrDetectorUnavailable is returned when the face cascade cannot be loaded
var ErrDetectorUnavailable = errors.New("face detector unavailable")

var (
	boxColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Detector finds faces in a frame
type Detector interface {
	Detect(img image.Image) []image.Rectangle
}

// FaceAnalysis summarises the faces in one frame
type FaceAnalysis struct {
	FacesDetected int               `json:"faces_detected"`
	Present       bool              `json:"face_present"`
	Positions     []image.Rectangle `json:"positions"`
}

// Analyze runs a detector over a frame
func Analyze(d Detector, img image.Image) FaceAnalysis {
	if d == nil || img == nil {
		return FaceAnalysis{}
	}
	rects := d.Detect(img)
	return FaceAnalysis{
		FacesDetected: len(rects),
		Present:       len(rects) > 0,
		Positions:     rects,
	}
}

// PigoDetector detects faces with a pigo cascade classifier
type PigoDetector struct {
	classifier *pigo.Pigo
	minSize    int
	maxSize    int
}

// NewPigoDetector loads a facefinder cascade file
func NewPigoDetector(cascadePath string) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unpack cascade: %v", ErrDetectorUnavailable, err)
	}

	return &PigoDetector{classifier: classifier, minSize: 30, maxSize: 1000}, nil
}

// Detect returns the bounding boxes of faces above the quality threshold
func (p *PigoDetector) Detect(img image.Image) []image.Rectangle {
	b := img.Bounds()
	cols, rows := b.Dx(), b.Dy()

	params := pigo.CascadeParams{
		MinSize:     p.minSize,
		MaxSize:     p.maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := p.classifier.RunCascade(params, 0.0)
	dets = p.classifier.ClusterDetections(dets, 0.2)

	var rects []image.Rectangle
	for _, d := range dets {
		if d.Q < minQuality {
			continue
		}
		half := d.Scale / 2
		r := image.Rect(d.Col-half, d.Row-half, d.Col+half, d.Row+half).Add(b.Min)
		rects = append(rects, r.Intersect(b))
	}
	return rects
}

// StampTime copies img and writes t in its top-left corner
func StampTime(img image.Image, t time.Time) *image.RGBA {
	out := toRGBA(img)
	b := out.Bounds()
	drawLabel(out, t.Format(timestampLayout), b.Min.X+10, b.Min.Y+20)
	return out
}

// Overlay copies img and outlines each face with a labelled box
func Overlay(img image.Image, faces []image.Rectangle) *image.RGBA {
	out := toRGBA(img)
	for _, r := range faces {
		r = r.Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		drawRect(out, r, 2)
		drawLabel(out, FaceLabel, r.Min.X, r.Min.Y-4)
	}
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

func drawRect(img *image.RGBA, r image.Rectangle, thickness int) {
	src := image.NewUniform(boxColor)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

func drawLabel(img *image.RGBA, text string, x, y int) {
	face := basicfont.Face7x13
	if top := img.Bounds().Min.Y + face.Ascent; y < top {
		y = top
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
