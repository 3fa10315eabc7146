package trackers

import (
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samuelfneumann/torcsrl/driver"
)

// Chart renders the distance raced and length of every episode of an
// experiment as an HTML line chart
type Chart struct {
	filename string
	track    string

	epochs   []int
	distance []opts.LineData
	ticks    []opts.LineData
}

// NewChart returns a new Chart Tracker rendering to filename
func NewChart(filename string) Tracker {
	return &Chart{filename: filename}
}

// Track caches the distance and length of a finished episode
func (c *Chart) Track(e driver.Episode) {
	c.track = e.Track
	c.epochs = append(c.epochs, e.Epochs)
	c.distance = append(c.distance, opts.LineData{Value: e.DistRaced})
	c.ticks = append(c.ticks, opts.LineData{Value: e.Ticks})
}

// Save renders the chart to disk
func (c *Chart) Save() {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "torcsrl",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Distance raced per epoch",
			Subtitle: fmt.Sprintf("track=%s epochs=%d", c.track, len(c.epochs)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "epoch", NameLocation: "middle", NameGap: 25}),
	)
	line.SetXAxis(c.epochs).
		AddSeries("distance", c.distance).
		AddSeries("ticks", c.ticks)

	file, err := os.Create(c.filename)
	if err != nil {
		log.Fatalf("could not open chart file: %v", err)
	}
	defer file.Close()

	if err := line.Render(file); err != nil {
		log.Fatalf("could not render chart: %v", err)
	}
}
