package transclude

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ExporterPool shares headless browsers between concurrent PDF exports.
//
// Each PDFExporter owns one Chrome process, so the pool size is the number
// of browsers that may run at once. Exporters are created on demand up to
// that size and their browsers start on the first Export, so a build that
// never prints a page never launches Chrome. After Close, Acquire returns
// nil and released exporters are not handed out again.
type ExporterPool struct {
	size      int
	timeout   time.Duration
	exporters []*PDFExporter
	sem       chan *PDFExporter
	mu        sync.Mutex
	created   int
	closed    bool

	// newExporter is replaced in tests.
	newExporter func(time.Duration) *PDFExporter
}

// NewExporterPool creates a pool with room for n browsers. timeout is the
// page load bound of every exporter it creates.
// Panics if timeout <= 0, like NewPDFExporter.
func NewExporterPool(n int, timeout time.Duration) *ExporterPool {
	if n < 1 {
		n = 1
	}
	if timeout <= 0 {
		panic("transclude: NewExporterPool timeout must be positive")
	}

	return &ExporterPool{
		size:        n,
		timeout:     timeout,
		exporters:   make([]*PDFExporter, 0, n),
		sem:         make(chan *PDFExporter, n),
		newExporter: NewPDFExporter,
	}
}

// Acquire returns an idle exporter, or creates one while fewer than Size
// exist. Otherwise it blocks until another export releases its exporter.
// It returns nil once the pool is closed.
func (p *ExporterPool) Acquire() *PDFExporter {
	select {
	case e, ok := <-p.sem:
		if ok {
			return e
		}
		return nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		e := p.newExporter(p.timeout)

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			_ = e.Close()
			return nil
		}
		p.exporters = append(p.exporters, e)
		p.mu.Unlock()

		return e
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release hands an exporter back with its browser still running, so the
// next Acquire skips Chrome startup. Exporters released after Close are
// dropped; Close has already shut their browsers down.
func (p *ExporterPool) Release(e *PDFExporter) {
	if e == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	// At most size exporters exist, so the buffered send never blocks.
	select {
	case p.sem <- e:
	default:
	}
}

// Close stops handing out exporters, then shuts every browser down in
// creation order, including those still held by callers. Their in-flight
// exports fail with a browser error. Returns the joined close errors.
func (p *ExporterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.exporters = nil
	p.mu.Unlock()

	var errs []error
	for _, e := range exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExporterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines how many browsers a batch runs. An explicit
// worker count wins; otherwise half of GOMAXPROCS, clamped to
// [MinPoolSize, MaxPoolSize], since each Chrome spawns helper processes.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
