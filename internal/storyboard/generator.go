// Package storyboard composes scene frames and captions into a single
// comic-strip style image.
package storyboard

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/scene2story/scene2story/internal/session"
)

const (
	panelPadding  = 10
	captionHeight = 60
	borderWidth   = 2
	lineHeight    = 14
	jpegQuality   = 85
)

type Generator struct {
	maxWidth int
	logger   *zap.Logger
}

func NewGenerator(maxWidth int, logger *zap.Logger) *Generator {
	if maxWidth <= 0 {
		maxWidth = 1200
	}
	return &Generator{maxWidth: maxWidth, logger: logger}
}

type layout struct {
	cols        int
	rows        int
	panelWidth  int
	panelHeight int
}

// calculateLayout picks a grid shape favoring more columns than rows, the
// way a comic strip reads.
func calculateLayout(numScenes, maxWidth int) layout {
	var cols int
	switch {
	case numScenes <= 3:
		cols = numScenes
	case numScenes <= 9:
		cols = 3
	default:
		cols = 4
	}
	if cols < 1 {
		cols = 1
	}

	rows := (numScenes + cols - 1) / cols
	panelWidth := (maxWidth - (cols+1)*panelPadding) / cols
	panelHeight := int(float64(panelWidth)*0.6) + captionHeight

	return layout{cols: cols, rows: rows, panelWidth: panelWidth, panelHeight: panelHeight}
}

// Generate renders the scene list into a storyboard jpeg at outputPath and
// returns the path. A scene whose frame image cannot be read gets a gray
// placeholder panel rather than failing the render.
func (g *Generator) Generate(scenes []session.Scene, outputPath string) (string, error) {
	if len(scenes) == 0 {
		return "", fmt.Errorf("no scenes to render")
	}

	lay := calculateLayout(len(scenes), g.maxWidth)
	totalWidth := lay.cols*lay.panelWidth + (lay.cols+1)*panelPadding
	totalHeight := lay.rows*lay.panelHeight + (lay.rows+1)*panelPadding

	canvas := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	fillRect(canvas, canvas.Bounds(), color.White)

	for i, sc := range scenes {
		col := i % lay.cols
		row := i / lay.cols
		x := panelPadding + col*(lay.panelWidth+panelPadding)
		y := panelPadding + row*(lay.panelHeight+panelPadding)

		g.drawPanel(canvas, sc, x, y, lay.panelWidth, lay.panelHeight)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create storyboard file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode storyboard: %w", err)
	}

	g.logger.Info("storyboard rendered",
		zap.String("path", outputPath),
		zap.Int("scenes", len(scenes)),
		zap.Int("cols", lay.cols), zap.Int("rows", lay.rows))
	return outputPath, nil
}

func (g *Generator) drawPanel(canvas *image.RGBA, sc session.Scene, x, y, w, h int) {
	imageHeight := h - captionHeight
	panelRect := image.Rect(x, y, x+w, y+h)
	imageRect := image.Rect(x+borderWidth, y+borderWidth, x+w-borderWidth, y+imageHeight-borderWidth)

	fillRect(canvas, panelRect, color.Black)
	fillRect(canvas, image.Rect(x+borderWidth, y+imageHeight, x+w-borderWidth, y+h-borderWidth), color.White)

	frame := g.loadFrame(sc)
	if frame != nil {
		xdraw.ApproxBiLinear.Scale(canvas, imageRect, frame, frame.Bounds(), xdraw.Over, nil)
	} else {
		fillRect(canvas, imageRect, color.RGBA{R: 180, G: 180, B: 180, A: 255})
	}

	captionText := sc.EnhancedCaption
	if captionText == "" {
		captionText = sc.Caption
	}
	if captionText == "" {
		captionText = fmt.Sprintf("Scene %d", sc.SceneNumber)
	}

	face := basicfont.Face7x13
	lines := wrapText(captionText, face, w-2*panelPadding)
	maxLines := (captionHeight - panelPadding) / lineHeight
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(x+panelPadding, y+imageHeight+lineHeight*(i+1))
		drawer.DrawString(line)
	}
}

func (g *Generator) loadFrame(sc session.Scene) image.Image {
	f, err := os.Open(sc.FramePath)
	if err != nil {
		g.logger.Warn("frame image unreadable, using placeholder",
			zap.Int("scene", sc.SceneNumber), zap.Error(err))
		return nil
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		g.logger.Warn("frame image undecodable, using placeholder",
			zap.Int("scene", sc.SceneNumber), zap.Error(err))
		return nil
	}
	return img
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	xdraw.Draw(dst, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

// wrapText breaks text into lines no wider than maxWidth when measured with
// the given face. A single word wider than the limit gets its own line.
func wrapText(text string, face font.Face, maxWidth int) []string {
	var lines []string
	var current string

	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if font.MeasureString(face, candidate).Ceil() <= maxWidth || current == "" {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
