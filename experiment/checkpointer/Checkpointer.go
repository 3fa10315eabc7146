// Package checkpointer implements periodic snapshots of the tables of
// a driver
package checkpointer

import "github.com/samuelfneumann/torcsrl/driver"

// Serializable is an object whose tables can be saved to a directory
type Serializable interface {
	SaveTables(dir string) error
}

// Checkpointer checkpoints/saves serializable objects based on finished
// episodes
type Checkpointer interface {
	Checkpoint(e driver.Episode) error
}
