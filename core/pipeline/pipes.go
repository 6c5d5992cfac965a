package pipeline

import (
	"fmt"
	"os"
)

// pipeEnds is one pipe, each end is closed at most once.
type pipeEnds struct {
	r *os.File
	w *os.File
}

func (p *pipeEnds) closeRead() {
	if p.r != nil {
		p.r.Close()
		p.r = nil
	}
}

func (p *pipeEnds) closeWrite() {
	if p.w != nil {
		p.w.Close()
		p.w = nil
	}
}

type pipeSet []*pipeEnds

// openPipes creates n pipes. If any can't be created the ones already open
// are closed.
func openPipes(n int) (pipeSet, error) {
	pipes := make(pipeSet, 0, n)
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			pipes.closeAll()
			return nil, spawnError("pipe", fmt.Errorf("pipe %d of %d: %w", i+1, n, err))
		}
		pipes = append(pipes, &pipeEnds{r: r, w: w})
	}
	return pipes, nil
}

// closeAll closes every end that's still open in the parent.
func (ps pipeSet) closeAll() {
	for _, p := range ps {
		p.closeRead()
		p.closeWrite()
	}
}

// open counts the ends still held by the parent.
func (ps pipeSet) open() int {
	count := 0
	for _, p := range ps {
		if p.r != nil {
			count++
		}
		if p.w != nil {
			count++
		}
	}
	return count
}
