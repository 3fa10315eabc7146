package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/torcsrl/driver"
)

// nStep implements checkpointing every N epochs
type nStep struct {
	interval int
	object   Serializable // Object to save

	// dirname returns the directory to save the tables in. Use
	// Enumerator to number the checkpoints, or Timestamped to name
	// them by the time they were taken.
	dirname func() string
}

// NewNStep returns a checkpointer that checkpoints every n epochs.
func NewNStep(n int, object Serializable, dirname func() string) Checkpointer {
	if n <= 0 {
		panic(fmt.Sprintf("newNStep: interval must be positive, got %v", n))
	}
	return &nStep{
		interval: n,
		object:   object,
		dirname:  dirname,
	}
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its SaveTables() method
func (n *nStep) Checkpoint(e driver.Episode) error {
	if e.Epochs > 0 && e.Epochs%n.interval == 0 {
		if err := n.object.SaveTables(n.dirname()); err != nil {
			return fmt.Errorf("checkpoint: epoch %v: %w", e.Epochs, err)
		}
	}
	return nil
}
