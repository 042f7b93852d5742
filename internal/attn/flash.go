package attn

import "github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"

// FlashOptions tunes the streaming strategy.
type FlashOptions struct {
	Options
	// BlockSize is the number of key/value rows folded in per step.
	BlockSize int
}

const defaultFlashBlock = 64

// Flash is the streaming strategy: a single pass over key/value blocks per
// query row with an online softmax accumulator, O(head_dim) working memory
// per row regardless of sequence length. The full score matrix is never
// materialized, so this strategy is exempt from the score-matrix memory
// bound.
type Flash struct {
	opts FlashOptions
}

func NewFlash(opts FlashOptions) *Flash {
	if opts.BlockSize <= 0 {
		opts.BlockSize = defaultFlashBlock
	}
	return &Flash{opts: opts}
}

func (s *Flash) Name() string { return "flash" }

func (s *Flash) ScratchBytes(w config.Workload) int64 {
	perWorker := int64(s.opts.BlockSize+w.HeadDim) * 4
	return int64(s.opts.workers()) * perWorker
}

func (s *Flash) Run(w config.Workload, q, k, v, out []float32) error {
	if err := checkArgs(w, q, k, v, out); err != nil {
		return err
	}

	d := w.HeadDim
	seq := w.SeqLen
	scale := w.Scale()
	bs := s.opts.BlockSize
	rows := w.Batch * w.Heads * seq

	parallelFor(rows, s.opts.workers(), func(start, end int) {
		scores := make([]float32, bs)
		st := newRowState(d)

		for ri := start; ri < end; ri++ {
			pair := ri / seq
			i := ri % seq
			base := pair * seq * d
			qRow := q[base+i*d : base+(i+1)*d]

			st.reset()

			// Causal masking excludes every block past the query's own
			// position; the partial block containing it is truncated, which
			// is equivalent to scoring the masked tail at -inf.
			kvEnd := seq
			if s.opts.Causal {
				kvEnd = i + 1
			}

			for kv := 0; kv < kvEnd; kv += bs {
				n := kvEnd - kv
				if n > bs {
					n = bs
				}
				block := scores[:n]
				for r := 0; r < n; r++ {
					j := kv + r
					block[r] = dot(qRow, k[base+j*d:base+(j+1)*d]) * scale
				}
				st.update(block, v[base+kv*d:base+(kv+n)*d])
			}

			st.finalize(out[base+i*d : base+(i+1)*d])
		}
	})

	return nil
}
