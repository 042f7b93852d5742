package attn

import "math"

// rowState is the online softmax accumulator for a single query row:
// running max m, running normalization sum l and the weighted value
// accumulator. It lives only while that row's key/value blocks are being
// processed. Invariants: m never decreases, and l and acc are always
// expressed relative to the current m.
type rowState struct {
	m   float32
	l   float32
	acc []float32
}

func newRowState(headDim int) rowState {
	return rowState{m: negInf, acc: make([]float32, headDim)}
}

func (st *rowState) reset() {
	st.m = negInf
	st.l = 0
	for i := range st.acc {
		st.acc[i] = 0
	}
}

// update folds one block of scores and the matching V rows (row-major,
// len(scores)*headDim values) into the running state. The previous l and
// acc are rescaled by exp(m_old - m_new) before the block's contribution is
// added, so the state stays stabilized against the new maximum. On the
// first block m_old is -inf and the rescale factor is exactly zero.
func (st *rowState) update(scores, vals []float32) {
	headDim := len(st.acc)

	blockMax := negInf
	for _, sc := range scores {
		if sc > blockMax {
			blockMax = sc
		}
	}
	if blockMax == negInf {
		// Fully masked block contributes nothing.
		return
	}

	newMax := st.m
	if blockMax > newMax {
		newMax = blockMax
	}

	if corr := float32(math.Exp(float64(st.m - newMax))); corr != 1 {
		st.l *= corr
		for i := range st.acc {
			st.acc[i] *= corr
		}
	}

	for i, sc := range scores {
		e := float32(math.Exp(float64(sc - newMax)))
		st.l += e
		vRow := vals[i*headDim : (i+1)*headDim]
		for j := 0; j < headDim; j++ {
			st.acc[j] += e * vRow[j]
		}
	}

	st.m = newMax
}

// finalize writes acc / l into dst. Requires at least one unmasked score to
// have been folded in.
func (st *rowState) finalize(dst []float32) {
	inv := float32(1.0) / st.l
	for j := range dst {
		dst[j] = st.acc[j] * inv
	}
}
