package worker

import (
	"context"
	"fmt"
	"io"

	"cpuburn/internal/logging"
)

// Run prints the startup line for inv and then counts forever, printing a
// progress line after every third batch. It only returns when ctx is
// cancelled (checked between batches) or a write to w fails.
//
// Each line is written with a single Write call and no buffering so that
// several processes sharing one stdout interleave whole lines only.
func Run(ctx context.Context, w io.Writer, inv Invocation) (Stats, error) {
	var st Stats

	v, err := Lookup(inv.Variant)
	if err != nil {
		return st, err
	}

	logging.Debug("worker.start", map[string]interface{}{
		"name":    inv.Name,
		"variant": v.ID,
		"delay":   inv.Delay,
	})

	if err := writeLine(w, inv.Name, v.Startup); err != nil {
		return st, err
	}

	for {
		for i := 0; i < BatchSize; i++ {
			st.Counter++
		}
		st.Iterations++

		if st.Iterations%ProgressEvery == 0 {
			if err := writeLine(w, inv.Name, v.Progress); err != nil {
				return st, err
			}
		}

		select {
		case <-ctx.Done():
			return st, ctx.Err()
		default:
		}
	}
}

func writeLine(w io.Writer, name, msg string) error {
	line := fmt.Sprintf("[%s] %s\n", name, msg)
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("write status line: %w", err)
	}
	return nil
}
