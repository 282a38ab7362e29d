package bot

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Sleeper waits for d or until ctx is done, returning ctx.Err() in the latter case
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Countdown waits d one second at a time, rewriting a single "Wait N seconds" line on w
func Countdown(ctx context.Context, w io.Writer, d time.Duration, sleep Sleeper) error {
	if w == nil {
		return sleep(ctx, d)
	}

	seconds := int(d / time.Second)
	for remaining := seconds; remaining > 0; remaining-- {
		fmt.Fprintf(w, "\rWait %d seconds to continue the loop", remaining)
		if err := sleep(ctx, time.Second); err != nil {
			fmt.Fprint(w, "\r\033[K")
			return err
		}
	}
	fmt.Fprint(w, "\r\033[K")

	if rest := d - time.Duration(seconds)*time.Second; rest > 0 {
		return sleep(ctx, rest)
	}
	return nil
}
