package attn

import "github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"

// TiledOptions tunes the tiled strategy. Tile sizes change the traffic
// pattern, never the result.
type TiledOptions struct {
	Options
	// QueryBlock is the number of query rows resident per block.
	QueryBlock int
	// KeyBlock is the number of key/value rows staged per scratch tile.
	KeyBlock int
	// GroupSize is the number of workers cooperating on one query block.
	GroupSize int
}

const (
	defaultQueryBlock = 64
	defaultKeyBlock   = 64
	defaultGroupSize  = 4
)

// Tiled computes the same result as Naive but partitions queries and
// keys/values into blocks. Each cooperating group stages one K (then V)
// tile into its scratch buffer, synchronizes, consumes the tile from all
// member workers, and synchronizes again before the next tile overwrites
// the scratch. Score rows stay resident one query block at a time, so the
// softmax remains the same two-pass max-then-sum as the reference.
type Tiled struct {
	opts TiledOptions
}

func NewTiled(opts TiledOptions) *Tiled {
	if opts.QueryBlock <= 0 {
		opts.QueryBlock = defaultQueryBlock
	}
	if opts.KeyBlock <= 0 {
		opts.KeyBlock = defaultKeyBlock
	}
	if opts.GroupSize <= 0 {
		opts.GroupSize = defaultGroupSize
	}
	return &Tiled{opts: opts}
}

func (s *Tiled) Name() string { return "tiled" }

func (s *Tiled) ScratchBytes(w config.Workload) int64 {
	perGroup := int64(2*s.opts.KeyBlock*w.HeadDim+s.opts.QueryBlock*w.SeqLen) * 4
	return int64(s.numGroups()) * perGroup
}

func (s *Tiled) numGroups() int {
	n := s.opts.workers() / s.opts.GroupSize
	if n < 1 {
		n = 1
	}
	return n
}

// tileTask is one query block of one (batch, head) plane.
type tileTask struct {
	pair   int
	qStart int
	qLen   int
}

// tileGroup is the shared state of one cooperating worker group: the
// scratch tiles, the resident score rows and the current task. Access is
// ordered exclusively by the barrier.
type tileGroup struct {
	bar    *barrier
	kTile  []float32
	vTile  []float32
	scores []float32
	task   tileTask
	ok     bool
}

func (s *Tiled) Run(w config.Workload, q, k, v, out []float32) error {
	if err := checkArgs(w, q, k, v, out); err != nil {
		return err
	}

	tasks := make(chan tileTask)
	done := make(chan struct{})
	groups := s.numGroups()

	for g := 0; g < groups; g++ {
		go func() {
			s.runGroup(w, q, k, v, out, tasks)
			done <- struct{}{}
		}()
	}

	seq := w.SeqLen
	pairs := w.Batch * w.Heads
	for pair := 0; pair < pairs; pair++ {
		for qStart := 0; qStart < seq; qStart += s.opts.QueryBlock {
			qLen := seq - qStart
			if qLen > s.opts.QueryBlock {
				qLen = s.opts.QueryBlock
			}
			tasks <- tileTask{pair: pair, qStart: qStart, qLen: qLen}
		}
	}
	close(tasks)

	for g := 0; g < groups; g++ {
		<-done
	}
	return nil
}

// runGroup spins up GroupSize member goroutines sharing one scratch set.
// Member 0 fetches tasks; barriers publish the task and the scratch
// contents to the rest of the group.
func (s *Tiled) runGroup(w config.Workload, q, k, v, out []float32, tasks <-chan tileTask) {
	size := s.opts.GroupSize
	g := &tileGroup{
		bar:    newBarrier(size),
		kTile:  make([]float32, s.opts.KeyBlock*w.HeadDim),
		vTile:  make([]float32, s.opts.KeyBlock*w.HeadDim),
		scores: make([]float32, s.opts.QueryBlock*w.SeqLen),
	}

	done := make(chan struct{})
	for id := 0; id < size; id++ {
		go func(id int) {
			for {
				if id == 0 {
					g.task, g.ok = <-tasks
				}
				g.bar.Wait() // task visible to all members
				if !g.ok {
					done <- struct{}{}
					return
				}
				s.processBlock(g, id, size, w, q, k, v, out)
				g.bar.Wait() // block finished before the next fetch
			}
		}(id)
	}
	for id := 0; id < size; id++ {
		<-done
	}
}

func (s *Tiled) processBlock(g *tileGroup, id, size int, w config.Workload, q, k, v, out []float32) {
	d := w.HeadDim
	seq := w.SeqLen
	scale := w.Scale()
	kb := s.opts.KeyBlock
	base := g.task.pair * seq * d
	qStart := g.task.qStart
	qLen := g.task.qLen

	// Phase 1: scores for the active query block, one staged K tile at a time.
	for kv := 0; kv < seq; kv += kb {
		kLen := seq - kv
		if kLen > kb {
			kLen = kb
		}

		for r := id; r < kLen; r += size {
			src := base + (kv+r)*d
			copy(g.kTile[r*d:(r+1)*d], k[src:src+d])
		}
		g.bar.Wait() // tile staged before any member consumes it

		for qi := id; qi < qLen; qi += size {
			i := qStart + qi
			row := g.scores[qi*seq : (qi+1)*seq]
			qRow := q[base+i*d : base+(i+1)*d]
			for r := 0; r < kLen; r++ {
				j := kv + r
				if s.opts.Causal && j > i {
					row[j] = negInf
					continue
				}
				row[j] = dot(qRow, g.kTile[r*d:(r+1)*d]) * scale
			}
		}
		g.bar.Wait() // tile consumed before the next one overwrites it
	}

	// Phase 2: two-pass softmax per resident row. Rows are member-disjoint.
	for qi := id; qi < qLen; qi += size {
		softmaxRow(g.scores[qi*seq : (qi+1)*seq])
	}

	// Phase 3: value-weighted sum, one staged V tile at a time.
	for kv := 0; kv < seq; kv += kb {
		kLen := seq - kv
		if kLen > kb {
			kLen = kb
		}

		for r := id; r < kLen; r += size {
			src := base + (kv+r)*d
			copy(g.vTile[r*d:(r+1)*d], v[src:src+d])
		}
		g.bar.Wait()

		for qi := id; qi < qLen; qi += size {
			i := qStart + qi
			outRow := out[base+i*d : base+(i+1)*d]
			if kv == 0 {
				for c := range outRow {
					outRow[c] = 0
				}
			}
			row := g.scores[qi*seq:]
			for r := 0; r < kLen; r++ {
				weight := row[kv+r]
				if weight == 0 {
					continue
				}
				vRow := g.vTile[r*d : (r+1)*d]
				for c := 0; c < d; c++ {
					outRow[c] += weight * vRow[c]
				}
			}
		}
		g.bar.Wait()
	}
}
