package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/motion_session/internal/session"
)

// PlotChannels renders the dataset's channels against time into an
// image file (format by extension: .png, .svg, .pdf). Intended for quick
// visual checks of a decoded recording, not analysis.
func PlotChannels(path string, ds *session.Dataset) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("unit %s @ %g Hz", ds.UnitID, ds.Header.SampleRateHz)
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "calibrated value"

	t0 := 0.0
	if ds.Len() > 0 {
		t0 = ds.Timestamps[0]
	}

	args := make([]interface{}, 0, 2*len(ds.Header.EnabledChannels))
	for _, name := range ds.Header.EnabledChannels {
		pts := make(plotter.XYs, ds.Len())
		for i := range pts {
			pts[i].X = ds.Timestamps[i] - t0
			pts[i].Y = ds.Channels[name][i]
		}
		args = append(args, name, pts)
	}

	if err := plotutil.AddLines(p, args...); err != nil {
		return fmt.Errorf("plot channels: %w", err)
	}
	if err := p.Save(20*vg.Centimeter, 12*vg.Centimeter, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
