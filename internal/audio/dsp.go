package audio

import "math"

// dcCutoffHz is the corner frequency of the DC blocking filter.
const dcCutoffHz = 20.0

// Hook is one post-processing step. Hooks may modify samples in place.
type Hook func(samples []float32) []float32

// ApplyHooks runs hooks over samples in order.
func ApplyHooks(samples []float32, hooks ...Hook) []float32 {
	out := samples
	for _, hook := range hooks {
		out = hook(out)
	}

	return out
}

// PeakNormalize scales samples in place so the peak amplitude reaches 1.0.
// Silence is returned unchanged.
func PeakNormalize(samples []float32) []float32 {
	var peak float64
	for _, s := range samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}

	if peak == 0 {
		return samples
	}

	gain := 1 / peak
	for i, s := range samples {
		samples[i] = float32(float64(s) * gain)
	}

	return samples
}

// DCBlock removes DC offset from samples using a one-pole high-pass filter.
func DCBlock(samples []float32, sampleRate int) []float32 {
	if sampleRate < 1 {
		return samples
	}

	r := math.Exp(-2 * math.Pi * dcCutoffHz / float64(sampleRate))

	var prevIn, prevOut float64
	for i, s := range samples {
		x := float64(s)
		y := x - prevIn + r*prevOut
		prevIn, prevOut = x, y
		samples[i] = float32(y)
	}

	return samples
}

// FadeIn applies a linear fade-in ramp over the given duration in milliseconds.
func FadeIn(samples []float32, sampleRate int, ms float64) []float32 {
	n := min(int(ms/1000*float64(sampleRate)), len(samples))
	for i := range n {
		samples[i] *= float32(i) / float32(n)
	}

	return samples
}

// FadeOut applies a linear fade-out ramp over the given duration in milliseconds.
func FadeOut(samples []float32, sampleRate int, ms float64) []float32 {
	n := min(int(ms/1000*float64(sampleRate)), len(samples))
	start := len(samples) - n
	for i := range n {
		samples[start+i] *= float32(n-1-i) / float32(n)
	}

	return samples
}
