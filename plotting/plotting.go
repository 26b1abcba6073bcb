// Package plotting renders a frame snapshot into image files: the magnitude spectrum as a
// line plot and the plan position indicator as a scatter plot with range rings.
package plotting

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ftl/radarview/dsp"
	"github.com/ftl/radarview/frame"
	"github.com/ftl/radarview/ppi"
	"github.com/ftl/radarview/radar"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch

	arcSteps = 90
)

var gridColor = color.RGBA{R: 0, G: 100, B: 0, A: 255}

// Spectrum creates a line plot of the given spectrum. The magnitudes are clamped to the
// fixed display range.
func Spectrum(result dsp.SpectrumResult, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Bin"
	p.Y.Label.Text = "Magnitude (dB)"
	p.Y.Min = dsp.DisplayMinDB
	p.Y.Max = dsp.DisplayMaxDB
	p.Add(plotter.NewGrid())

	if result.Empty() {
		return p, nil
	}

	points := make(plotter.XYs, result.Len())
	for i := range points {
		points[i] = plotter.XY{X: result.Frequency[i], Y: dsp.ClampDB(result.Magnitude[i])}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	p.X.Min = result.Frequency[0]
	p.X.Max = result.Frequency[result.Len()-1]
	return p, nil
}

// PPI creates a scatter plot of the given tracks in meters with the azimuth 0° pointing
// up. Targets outside the displayed area are left out.
func PPI(tracks radar.TrackList, maxRange float64, title string) (*plot.Plot, error) {
	if maxRange <= 0 {
		return nil, fmt.Errorf("invalid max range: %v", maxRange)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Cross range (m)"
	p.Y.Label.Text = "Down range (m)"
	p.X.Min = -maxRange
	p.X.Max = maxRange
	p.Y.Min = 0
	p.Y.Max = maxRange

	// the PPI coordinates grow downwards, the plot coordinates grow upwards
	grid := ppi.NewGrid(maxRange, ppi.Point{}, maxRange)
	for _, ring := range grid.Rings {
		line, err := plotter.NewLine(toXYs(grid.Arc(ring, arcSteps)))
		if err != nil {
			return nil, err
		}
		line.Color = gridColor
		line.Width = vg.Points(0.5)
		p.Add(line)
	}
	for _, spoke := range grid.Spokes {
		line, err := plotter.NewLine(toXYs([]ppi.Point{grid.Center, spoke.End}))
		if err != nil {
			return nil, err
		}
		line.Color = gridColor
		line.Width = vg.Points(0.5)
		p.Add(line)
	}
	labels, err := ringLabels(grid)
	if err != nil {
		return nil, err
	}
	p.Add(labels)

	projector := ppi.Projector{MaxRange: maxRange, PlotRadius: maxRange}
	targets := projector.ProjectAll(tracks)
	if len(targets) == 0 {
		return p, nil
	}

	points := make([]ppi.Point, len(targets))
	for i, target := range targets {
		points[i] = target.Position()
	}
	scatter, err := plotter.NewScatter(toXYs(points))
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		target := targets[i]
		return draw.GlyphStyle{
			Color:  toColor(target.Color),
			Radius: vg.Points(target.MarkerRadius / 2),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	return p, nil
}

func ringLabels(grid ppi.Grid) (*plotter.Labels, error) {
	positions := make([]ppi.Point, len(grid.Rings))
	texts := make([]string, len(grid.Rings))
	for i, ring := range grid.Rings {
		positions[i] = ring.LabelPosition
		texts[i] = ring.Label
	}
	return plotter.NewLabels(plotter.XYLabels{XYs: toXYs(positions), Labels: texts})
}

func toXYs(points []ppi.Point) plotter.XYs {
	result := make(plotter.XYs, len(points))
	for i, point := range points {
		result[i] = plotter.XY{X: point.X, Y: -point.Y}
	}
	return result
}

func toColor(rgb ppi.RGB) color.Color {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// WritePNG renders the given plot as PNG.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	writer, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = writer.WriteTo(w)
	return err
}

// WriteSnapshot writes the spectrum and the PPI plot of the given snapshot as PNG files into
// the given directory and returns the filenames.
func WriteSnapshot(snapshot frame.Snapshot, dir string) ([]string, error) {
	spectrum, err := Spectrum(snapshot.Spectrum, fmt.Sprintf("Spectrum - frame %d", snapshot.Number))
	if err != nil {
		return nil, fmt.Errorf("cannot plot spectrum: %w", err)
	}
	positions, err := PPI(snapshot.Tracks, snapshot.MaxRange, fmt.Sprintf("PPI - %s", snapshot.StatusLine()))
	if err != nil {
		return nil, fmt.Errorf("cannot plot PPI: %w", err)
	}

	filenames := []string{
		filepath.Join(dir, fmt.Sprintf("spectrum_%06d.png", snapshot.Number)),
		filepath.Join(dir, fmt.Sprintf("ppi_%06d.png", snapshot.Number)),
	}
	for i, p := range []*plot.Plot{spectrum, positions} {
		err := savePNG(filenames[i], p)
		if err != nil {
			return nil, err
		}
	}
	return filenames, nil
}

func savePNG(filename string, p *plot.Plot) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filename, err)
	}
	defer f.Close()

	err = WritePNG(f, p, DefaultWidth, DefaultHeight)
	if err != nil {
		return fmt.Errorf("cannot write %s: %w", filename, err)
	}
	return f.Close()
}
