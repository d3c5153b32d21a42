package game

import (
	"runtime"
	"sync"
)

// decisionSnapshot captures read-only state for one controller call.
type decisionSnapshot struct {
	Index      int // Roster index
	Inputs     [ObservationSize]float64
	Controller Controller
}

// intent captures a controller result to apply after the parallel phase.
type intent struct {
	Output float64
	Err    error
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel decision computation.
type parallelState struct {
	snapshots  []decisionSnapshot
	intents    []intent
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState() *parallelState {
	return &parallelState{
		numWorkers: runtime.GOMAXPROCS(0),
		snapshots:  make([]decisionSnapshot, 0, 256),
		intents:    make([]intent, 0, 256),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// computeChunk runs the controllers for a range of snapshots.
func (p *parallelState) computeChunk(i0, i1 int) {
	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]
		out, err := decide(snap.Controller, snap.Inputs[:])
		p.intents[i] = intent{Output: out, Err: err}
	}
}

// dispatch splits n snapshots across the worker pool and waits for all of them.
func (p *parallelState) dispatch(n int) {
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// decideParallel observes every alive bird, runs the controllers on the worker
// pool and then applies jumps in entrant order so results match the serial path.
func (g *Game) decideParallel() {
	p := g.parallel

	// Phase A: snapshots (single-threaded)
	p.snapshots = p.snapshots[:0]
	for _, idx := range g.active {
		bird, fit, _ := g.birdMapper.Get(g.roster[idx])
		g.paySurvival(fit)

		snap := decisionSnapshot{Index: idx, Controller: g.entrants[idx].Controller}
		g.observe(bird, snap.Inputs[:])
		p.snapshots = append(p.snapshots, snap)
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]

	// Phase B: compute
	p.dispatch(n)

	// Phase C: apply (single-threaded)
	for i, snap := range p.snapshots {
		g.applyDecision(snap.Index, p.intents[i].Output, p.intents[i].Err)
	}
}
