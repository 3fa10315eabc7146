package trackers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/samuelfneumann/torcsrl/driver"
)

// ErrCorrupt is returned when a statistics file cannot be parsed
var ErrCorrupt = errors.New("corrupt statistics")

// statisticsHeader names the columns of a statistics file
var statisticsHeader = []string{"track", "epoch", "ticks", "distance",
	"completedLaps", "maxEpochs", "topSpeed"}

// Row is a single line of a statistics file
type Row struct {
	Track         string
	Epoch         int
	Ticks         int
	Distance      float64
	CompletedLaps int
	MaxEpochs     int
	TopSpeed      float64
}

// NewRow returns the statistics of an episode
func NewRow(e driver.Episode) Row {
	return Row{
		Track:         e.Track,
		Epoch:         e.Epochs,
		Ticks:         e.Ticks,
		Distance:      e.DistRaced,
		CompletedLaps: e.CompletedLaps,
		MaxEpochs:     e.MaxEpochs,
		TopSpeed:      e.TopSpeed,
	}
}

func (r Row) record() []string {
	return []string{
		r.Track,
		strconv.Itoa(r.Epoch),
		strconv.Itoa(r.Ticks),
		strconv.FormatFloat(r.Distance, 'g', -1, 64),
		strconv.Itoa(r.CompletedLaps),
		strconv.Itoa(r.MaxEpochs),
		strconv.FormatFloat(r.TopSpeed, 'g', -1, 64),
	}
}

// Statistics appends one CSV line per finished episode to a statistics
// file. Lines are written as soon as an episode is tracked so that the
// statistics of a run survive the process being killed.
type Statistics struct {
	filename string
}

// NewStatistics returns a new Statistics Tracker appending to filename
func NewStatistics(filename string) Tracker {
	return &Statistics{filename: filename}
}

// Track appends the statistics of an episode to the file, writing the
// header first if the file is empty
func (s *Statistics) Track(e driver.Episode) {
	file, err := os.OpenFile(s.filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0o644)
	if err != nil {
		log.Fatalf("could not open statistics file: %v", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		log.Fatalf("could not stat statistics file: %v", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		w.Write(statisticsHeader)
	}
	w.Write(NewRow(e).record())
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("could not write statistics: %v", err)
	}
}

// Save does nothing, every episode is written when it is tracked
func (s *Statistics) Save() {}

// LoadStatistics reads every line of a statistics file. The header is
// optional.
func LoadStatistics(filename string) ([]Row, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadStatistics: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(statisticsHeader)

	var rows []Row
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("loadStatistics: %w: %v", ErrCorrupt, err)
		}
		if line == 1 && record[0] == statisticsHeader[0] {
			continue
		}

		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("loadStatistics: %w: line %v: %v",
				ErrCorrupt, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(record []string) (Row, error) {
	var (
		row  = Row{Track: record[0]}
		errs []error
	)
	atoi := func(s string) int {
		v, err := strconv.Atoi(s)
		errs = append(errs, err)
		return v
	}
	atof := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}

	row.Epoch = atoi(record[1])
	row.Ticks = atoi(record[2])
	row.Distance = atof(record[3])
	row.CompletedLaps = atoi(record[4])
	row.MaxEpochs = atoi(record[5])
	row.TopSpeed = atof(record[6])

	return row, errors.Join(errs...)
}
