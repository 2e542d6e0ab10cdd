package speech

import (
	"math"

	"voicechat/internal/audio"
)

// CalibrationWindowMs is how much leading audio a mic capture donates to
// ambient-noise measurement. The remainder is the recognition window.
const CalibrationWindowMs = 500

// calibrate splits off the leading calibration window of a mic capture and
// returns the recognition window plus the ambient RMS energy of the window.
// Clips shorter than the window calibrate on what there is and keep nothing.
func calibrate(buf *audio.Buffer, windowMs int) (*audio.Buffer, float64) {
	n := buf.SampleRate * windowMs / 1000
	if n > len(buf.Samples) {
		n = len(buf.Samples)
	}

	ambient := rms(buf.Samples[:n])
	rest := &audio.Buffer{Samples: buf.Samples[n:], SampleRate: buf.SampleRate}
	return rest, ambient
}

// hasSpeech reports whether the recognition window rises meaningfully above
// the measured ambient floor. A hard floor keeps near-digital-silence clips
// from ever reaching the recognition service; the peak escape hatch keeps
// captures where speech starts inside the calibration window.
func hasSpeech(buf *audio.Buffer, ambient float64) bool {
	if buf.Empty() {
		return false
	}

	const (
		energyFactor = 1.2
		silenceFloor = 60.0
		speechPeak   = 2000
	)

	threshold := ambient * energyFactor
	if threshold < silenceFloor {
		threshold = silenceFloor
	}
	if rms(buf.Samples) >= threshold {
		return true
	}
	return peak(buf.Samples) >= speechPeak
}

func peak(samples []int16) int {
	max := 0
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
