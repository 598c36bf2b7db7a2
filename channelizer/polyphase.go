package channelizer

import (
	"github.com/ausocean/sdr/dsp"
)

// polyphaseChannelize implements the preferred polyphase-filter-bank
// channelizer: a prototype low-pass is designed at the channel bandwidth and
// partitioned across m phases (tapsPerPhase taps each); each requested
// channel is produced by mixing the wideband stream down to baseband by its
// offset from fc, applying the (phase-reassembled) prototype filter, and
// decimating by m.
func polyphaseChannelize(i, q []float32, fs, fc, cbw float64, m int, reqs []Request, tapsPerPhase int) ([]Result, error) {
	proto, err := designPrototype(cbw, fs, m, tapsPerPhase)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(reqs))
	for _, r := range reqs {
		offset := r.FrequencyHz - fc
		mi, mq := mixDown(i, q, offset, fs)
		fi, fq, err := dsp.ApplyFIR(mi, mq, proto)
		if err != nil {
			return nil, err
		}
		di, dq := decimateSimple(fi, fq, m)
		out = append(out, Result{
			FrequencyHz: r.FrequencyHz,
			I:           di,
			Q:           dq,
			FsOut:       fs / float64(m),
		})
	}
	return out, nil
}

// designPrototype builds the PFB prototype low-pass filter: a windowed-sinc
// design at the channel bandwidth, trimmed symmetrically to about
// tapsPerPhase taps per phase across m phases when the design is longer than
// that budget; a shorter design is used unchanged. The phase partition
// itself is implicit in the tap count;
// polyphaseChannelize applies the reassembled prototype directly since
// dsp.ApplyFIR already performs the equivalent symmetric convolution.
func designPrototype(cbw, fs float64, m, tapsPerPhase int) ([]float64, error) {
	coeffs, err := dsp.DesignLowpass(cbw/2, fs)
	if err != nil {
		return nil, err
	}
	want := tapsPerPhase * m
	if want < len(coeffs) {
		// Trim symmetrically to the requested polyphase tap budget.
		trim := (len(coeffs) - want) / 2
		if trim > 0 {
			coeffs = coeffs[trim : len(coeffs)-trim]
		}
	}
	return coeffs, nil
}
