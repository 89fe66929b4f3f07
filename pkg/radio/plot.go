package radio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Plot dimensions in pixels.
const (
	PlotWidth  = 640
	PlotHeight = 240

	plotMargin = 16
)

// PlotTune writes an SVG staircase of note frequency against time.
func PlotTune(w io.Writer, notes []Note) error {
	var total, top float64
	for _, n := range notes {
		total += n.Beats
		if n.Freq > top {
			top = n.Freq
		}
	}
	if total <= 0 {
		return fmt.Errorf("tune has no duration")
	}
	if top <= 0 {
		top = 1
	}

	sx := float64(PlotWidth-2*plotMargin) / total
	sy := float64(PlotHeight-2*plotMargin) / top
	y := func(f float64) float64 { return float64(PlotHeight-plotMargin) - f*sy }

	var path bytes.Buffer
	x := float64(plotMargin)
	fmt.Fprintf(&path, "M %.2f %.2f", x, y(notes[0].Freq))
	for _, n := range notes {
		fmt.Fprintf(&path, " L %.2f %.2f", x, y(n.Freq))
		x += n.Beats * sx
		fmt.Fprintf(&path, " L %.2f %.2f", x, y(n.Freq))
	}

	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>
<path d="M %d %d L %d %d" stroke="#999999" stroke-width="1" fill="none"/>
<path d="%s" stroke="#1f77b4" stroke-width="2" fill="none"/>
</svg>
`,
		PlotWidth, PlotHeight, PlotWidth, PlotHeight,
		PlotWidth, PlotHeight,
		plotMargin, PlotHeight-plotMargin, PlotWidth-plotMargin, PlotHeight-plotMargin,
		path.String())
	return err
}

// RenderTune rasterizes the PlotTune drawing.
func RenderTune(notes []Note) (*image.RGBA, error) {
	var svg bytes.Buffer
	if err := PlotTune(&svg, notes); err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(&svg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tune plot: %w", err)
	}
	icon.SetTarget(0, 0, PlotWidth, PlotHeight)

	img := image.NewRGBA(image.Rect(0, 0, PlotWidth, PlotHeight))
	scanner := rasterx.NewScannerGV(PlotWidth, PlotHeight, img, img.Bounds())
	raster := rasterx.NewDasher(PlotWidth, PlotHeight, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// RenderTunePNG writes the tune plot as a PNG image.
func RenderTunePNG(w io.Writer, notes []Note) error {
	img, err := RenderTune(notes)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
