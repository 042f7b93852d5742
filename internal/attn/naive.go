package attn

import "github.com/SID-Devu/LLM-Attention-DeepDive/internal/config"

// Naive is the reference strategy. It materializes the full score matrix,
// applies a two-pass softmax per row and then the value-weighted sum. It is
// the correctness oracle for the tiled and flash strategies.
type Naive struct {
	opts Options
}

func NewNaive(opts Options) *Naive {
	return &Naive{opts: opts}
}

func (s *Naive) Name() string { return "naive" }

func (s *Naive) ScratchBytes(w config.Workload) int64 {
	return w.ScoreBytes()
}

func (s *Naive) Run(w config.Workload, q, k, v, out []float32) error {
	if err := checkArgs(w, q, k, v, out); err != nil {
		return err
	}

	d := w.HeadDim
	seq := w.SeqLen
	scale := w.Scale()
	pairs := w.Batch * w.Heads

	// Full score matrix in slow memory, one [seq, seq] plane per (batch, head).
	scores := make([]float32, w.ScoreElements())

	parallelFor(pairs, s.opts.workers(), func(start, end int) {
		for pair := start; pair < end; pair++ {
			base := pair * seq * d
			plane := scores[pair*seq*seq : (pair+1)*seq*seq]

			for i := 0; i < seq; i++ {
				row := plane[i*seq : (i+1)*seq]
				qRow := q[base+i*d : base+(i+1)*d]
				for j := 0; j < seq; j++ {
					if s.opts.Causal && j > i {
						row[j] = negInf
						continue
					}
					row[j] = dot(qRow, k[base+j*d:base+(j+1)*d]) * scale
				}

				softmaxRow(row)

				outRow := out[base+i*d : base+(i+1)*d]
				for c := range outRow {
					outRow[c] = 0
				}
				for j := 0; j < seq; j++ {
					weight := row[j]
					if weight == 0 {
						continue
					}
					vRow := v[base+j*d : base+(j+1)*d]
					for c := 0; c < d; c++ {
						outRow[c] += weight * vRow[c]
					}
				}
			}
		}
	})

	return nil
}
