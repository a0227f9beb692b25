// Package progress reports throughput of bytes flowing into a sink.
package progress

import (
	"fmt"
	"io"
	"time"

	"hashwriter/internal/hashwriter"
)

// Event describes progress at a point in time.
type Event struct {
	Bytes      uint64
	Total      uint64
	InstantBps float64
	AverageBps float64
	ETA        time.Duration
	Elapsed    time.Duration
}

// Reporter emits human-readable progress updates. A zero total means the size
// is unknown and no ETA is printed.
type Reporter struct {
	w          io.Writer
	total      uint64
	label      string
	now        func() time.Time
	start      time.Time
	lastTick   time.Time
	lastBytes  uint64
	minTickGap time.Duration
}

// NewReporter creates a reporter with update throttling.
func NewReporter(w io.Writer, label string, total uint64) *Reporter {
	r := &Reporter{w: w, total: total, label: label, now: time.Now, minTickGap: 150 * time.Millisecond}
	r.start = r.now()
	r.lastTick = r.start
	return r
}

// Update prints progress at throttled intervals.
func (r *Reporter) Update(bytes uint64) {
	now := r.now()
	if now.Sub(r.lastTick) < r.minTickGap && (r.total == 0 || bytes < r.total) {
		return
	}
	e := r.event(bytes, now)
	if r.total > 0 {
		_, _ = fmt.Fprintf(r.w, "\r%s %s/%s inst:%s avg:%s eta:%s", r.label, humanBytes(e.Bytes), humanBytes(e.Total), humanRate(e.InstantBps), humanRate(e.AverageBps), humanDuration(e.ETA))
	} else {
		_, _ = fmt.Fprintf(r.w, "\r%s %s inst:%s avg:%s", r.label, humanBytes(e.Bytes), humanRate(e.InstantBps), humanRate(e.AverageBps))
	}
	r.lastTick = now
	r.lastBytes = bytes
}

// Done prints the final summary.
func (r *Reporter) Done(bytes uint64) {
	e := r.event(bytes, r.now())
	_, _ = fmt.Fprintf(r.w, "\r%s complete %s in %s avg:%s\n", r.label, humanBytes(e.Bytes), humanDuration(e.Elapsed), humanRate(e.AverageBps))
}

func (r *Reporter) event(bytes uint64, now time.Time) Event {
	elapsed := now.Sub(r.start)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	chunkDur := now.Sub(r.lastTick)
	if chunkDur <= 0 {
		chunkDur = time.Millisecond
	}
	inst := float64(bytes-r.lastBytes) / chunkDur.Seconds()
	avg := float64(bytes) / elapsed.Seconds()
	var eta time.Duration
	if r.total > bytes && avg > 0 {
		eta = time.Duration(float64(r.total-bytes)/avg) * time.Second
	}
	return Event{Bytes: bytes, Total: r.total, InstantBps: inst, AverageBps: avg, ETA: eta, Elapsed: elapsed}
}

// Writer counts bytes accepted by a sink and reports them.
type Writer struct {
	sink     hashwriter.Sink
	reporter *Reporter
	written  uint64
}

var _ hashwriter.Sink = (*Writer)(nil)

// NewWriter wraps sink so that accepted bytes are reported through r.
func NewWriter(sink hashwriter.Sink, r *Reporter) *Writer {
	return &Writer{sink: sink, reporter: r}
}

// Write forwards p to the sink and reports the accepted count.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.sink.Write(p)
	if n > 0 {
		w.written += uint64(n)
		w.reporter.Update(w.written)
	}
	return n, err
}

// Flush flushes the sink.
func (w *Writer) Flush() error { return w.sink.Flush() }

// Written returns the number of bytes the sink accepted.
func (w *Writer) Written() uint64 { return w.written }

// Done prints the final summary.
func (w *Writer) Done() { w.reporter.Done(w.written) }

func humanBytes(v uint64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	val := float64(v)
	u := 0
	for val >= 1024 && u < len(units)-1 {
		val /= 1024
		u++
	}
	return fmt.Sprintf("%.1f%s", val, units[u])
}

func humanRate(bps float64) string {
	if bps < 0 {
		bps = 0
	}
	return fmt.Sprintf("%s/s", humanBytes(uint64(bps)))
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}
