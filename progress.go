package micego

import (
	"fmt"
	"io"

	"golang.org/x/time/rate"
)

// ConsoleProgress returns a ProgressFunc that writes one-line progress
// reports to w, throttled to a few updates per second so tight loops do not
// flood the output. The final column update of a run is always reported.
func ConsoleProgress(w io.Writer) ProgressFunc {
	limiter := rate.NewLimiter(rate.Limit(4), 1)
	return func(iteration, total int, column string) {
		if iteration == total || limiter.Allow() {
			fmt.Fprintf(w, "iteration %d/%d: %s\n", iteration, total, column)
		}
	}
}
