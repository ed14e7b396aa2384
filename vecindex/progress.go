package vecindex

import (
	"fmt"
	"io"
	"time"
)

// progressTracker reports index build progress to a writer. The build is a
// single sequential pass, so no locking is needed.
type progressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
}

func newProgressTracker(writer io.Writer, total, reportInterval int) *progressTracker {
	if writer == nil {
		writer = io.Discard
	}
	return &progressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
		startTime:      time.Now(),
	}
}

func (p *progressTracker) increment(delta int) {
	p.current += delta
	if p.current > p.total {
		p.current = p.total
	}
	if p.reportInterval > 0 && p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
}

func (p *progressTracker) finish() {
	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

func (p *progressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rIndexed: %d/%d (%.1f%%) - %.1f records/s",
		p.current, p.total, percentage, rate)
}
