package results

import (
	"fmt"
	"io"
)

// PrintAggregate writes the aggregate summary line to w. It is always
// called, regardless of whether any durable sink is configured.
func PrintAggregate(w io.Writer, agg Aggregate) {
	fmt.Fprint(w, agg.String())
}
