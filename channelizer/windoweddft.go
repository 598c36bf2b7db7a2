package channelizer

import (
	"github.com/ausocean/sdr/dsp"
)

// windowedDFTChannelize implements the fallback channelizer: each requested
// channel is extracted by mixing the wideband stream down to baseband by its
// offset from fc, applying a Hann window to suppress leakage, and decimating
// by m. This avoids the prototype-filter design path entirely, trading
// sidelobe rejection for simplicity and robustness when the PFB path fails.
func windowedDFTChannelize(i, q []float32, fs, fc float64, m int, reqs []Request) ([]Result, error) {
	out := make([]Result, 0, len(reqs))
	for _, r := range reqs {
		offset := r.FrequencyHz - fc
		mi, mq := mixDown(i, q, offset, fs)

		wi := make([]float32, len(mi))
		wq := make([]float32, len(mq))
		copy(wi, mi)
		copy(wq, mq)
		if err := dsp.ApplyHann(wi, wq); err != nil {
			return nil, err
		}

		di, dq := decimateSimple(wi, wq, m)
		out = append(out, Result{
			FrequencyHz: r.FrequencyHz,
			I:           di,
			Q:           dq,
			FsOut:       fs / float64(m),
		})
	}
	return out, nil
}

