package noise

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/cloudnoise/internal/cloud"
)

// WriteChart renders a top-down X/Y scatter of the partition as a
// standalone HTML page, one series per class. Debugging aid for eyeball
// checks of a filter configuration; not part of the pipeline output.
func WriteChart(w io.Writer, c *cloud.Cloud, part Partition) error {
	inliers := make([]opts.ScatterData, 0, len(part.Inliers))
	outliers := make([]opts.ScatterData, 0, len(part.Outliers))

	maxAbs := 0.0
	collect := func(ids []int, dst *[]opts.ScatterData) {
		for _, id := range ids {
			p := c.At(id)
			if math.Abs(p.X) > maxAbs {
				maxAbs = math.Abs(p.X)
			}
			if math.Abs(p.Y) > maxAbs {
				maxAbs = math.Abs(p.Y)
			}
			*dst = append(*dst, opts.ScatterData{Value: []interface{}{p.X, p.Y}})
		}
	}
	collect(part.Inliers, &inliers)
	collect(part.Outliers, &outliers)

	// Padding so edge points stay visible.
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Point Cloud Outliers", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Outlier Classification",
			Subtitle: fmt.Sprintf("inliers=%d outliers=%d", len(part.Inliers), len(part.Outliers)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("inliers", inliers, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("outliers", outliers, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render partition chart: %w", err)
	}
	return nil
}
