package checkpointer

import (
	"fmt"
	"path/filepath"
	"time"
)

// Enumerator returns a function naming consecutive checkpoints
// dir/prefix<start+1>, dir/prefix<start+2>, ...
func Enumerator(dir, prefix string, start int) func() string {
	i := start
	return func() string {
		i++
		return filepath.Join(dir, fmt.Sprintf("%v%v", prefix, i))
	}
}

// Timestamped returns a function naming checkpoints dir/prefix-<t>
// where t is the number of nanoseconds since January 1, 1970 at the
// time of the call
func Timestamped(dir, prefix string) func() string {
	return func() string {
		return filepath.Join(dir, fmt.Sprintf("%v-%v", prefix,
			time.Now().UnixNano()))
	}
}
