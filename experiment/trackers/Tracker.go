// Package trackers implements Trackers, which track and save data about
// the episodes of an experiment
package trackers

import (
	"encoding/gob"
	"log"
	"os"

	"github.com/samuelfneumann/torcsrl/driver"
)

// Interface Tracker keeps track of finished episodes and saves the
// data when the experiment is over
type Tracker interface {
	Track(e driver.Episode)
	Save()
}

// LoadData loads and returns the data saved by a gob Tracker
func LoadData[T any](filename string) []T {
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	// Create the decoder and the variable to store the data in
	dec := gob.NewDecoder(file)
	var data []T

	// Decode the data
	err = dec.Decode(&data)
	if err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}

// save gob-encodes data to filename
func save(filename string, data any) {
	// Open the file to save to
	file, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	// Encode and save the file
	en := gob.NewEncoder(file)
	if err = en.Encode(data); err != nil {
		log.Fatalf("could not encode data: %v", err)
	}
}
