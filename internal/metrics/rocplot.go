package metrics

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveROCPlot renders the ROC curve to an image file (format chosen by
// the path extension, typically .png). The plot carries the usual 50%
// diagonal reference line.
func SaveROCPlot(fpr, tpr []float64, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create plot dir: %w", err)
		}
	}

	p := plot.New()
	p.Title.Text = "ROC Curve"
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"

	diag := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	diagLine, err := plotter.NewLine(diag)
	if err != nil {
		return fmt.Errorf("failed to build diagonal line: %w", err)
	}
	diagLine.LineStyle.Color = color.Gray{Y: 128}
	diagLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagLine)

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build ROC line: %w", err)
	}
	curve.LineStyle.Width = vg.Points(1.5)
	curve.LineStyle.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	p.Add(curve)

	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save ROC plot: %w", err)
	}
	return nil
}
