package audio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Stream format: 16-bit little-endian PCM, 16kHz mono.
const (
	SampleRate     = 16000
	BytesPerSample = 2
)

const (
	// DefaultSilenceThreshold is the mean absolute sample amplitude below
	// which a frame counts as silence.
	DefaultSilenceThreshold = 500
	// DefaultSilenceHold is how long silence must persist after speech
	// before an utterance boundary is reported.
	DefaultSilenceHold = 1800 * time.Millisecond
	// DefaultMinSpeech is the minimum accumulated audio for a boundary;
	// shorter clips are kept buffering.
	DefaultMinSpeech = 1 * time.Second
	// MaxUtterance caps buffering on continuous noise: once exceeded with
	// speech observed, a boundary is forced.
	MaxUtterance = 10 * time.Second
)

// Config tunes a Segmenter. Zero values take the defaults above.
type Config struct {
	SilenceThreshold float64
	SilenceHold      time.Duration
	MinSpeech        time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Segmenter accumulates inbound audio frames and detects utterance
// boundaries: speech followed by sustained silence, or the hard buffer cap.
// Not safe for concurrent use; each call stream owns exactly one.
type Segmenter struct {
	buf            bytes.Buffer
	threshold      float64
	silenceHold    time.Duration
	minSpeechBytes int
	maxBytes       int

	speechSeen   bool
	silenceStart time.Time
	now          func() time.Time
}

func NewSegmenter(cfg Config) *Segmenter {
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = DefaultSilenceThreshold
	}
	if cfg.SilenceHold <= 0 {
		cfg.SilenceHold = DefaultSilenceHold
	}
	if cfg.MinSpeech <= 0 {
		cfg.MinSpeech = DefaultMinSpeech
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Segmenter{
		threshold:      cfg.SilenceThreshold,
		silenceHold:    cfg.SilenceHold,
		minSpeechBytes: bytesForDuration(cfg.MinSpeech),
		maxBytes:       bytesForDuration(MaxUtterance),
		now:            cfg.Now,
	}
}

// Consume appends one frame and reports whether an utterance boundary was
// reached. After a true result the caller must Drain exactly once before
// feeding further frames, or the same audio would be processed twice.
func (s *Segmenter) Consume(frame []byte) bool {
	s.buf.Write(frame)

	loudness := Loudness(frame)
	if loudness >= s.threshold {
		s.speechSeen = true
		s.silenceStart = time.Time{}
	}

	if s.speechSeen && loudness < s.threshold {
		if s.silenceStart.IsZero() {
			s.silenceStart = s.now()
		} else if s.now().Sub(s.silenceStart) >= s.silenceHold {
			if s.buf.Len() > s.minSpeechBytes {
				return true
			}
		}
	}

	if s.buf.Len() > s.maxBytes && s.speechSeen {
		return true
	}
	return false
}

// Drain returns the accumulated audio and resets the segmenter to its
// initial state.
func (s *Segmenter) Drain() []byte {
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	s.buf.Reset()
	s.speechSeen = false
	s.silenceStart = time.Time{}
	return out
}

// Buffered reports the number of bytes currently accumulated.
func (s *Segmenter) Buffered() int { return s.buf.Len() }

// Loudness computes the mean absolute sample amplitude of a 16-bit LE PCM
// frame. Malformed frames decode as fully silent rather than erroring: a
// dropped frame must never take the stream down.
func Loudness(frame []byte) float64 {
	n := len(frame) / BytesPerSample
	if n == 0 || len(frame)%BytesPerSample != 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(frame[i*BytesPerSample:]))
		if v < 0 {
			sum -= float64(v)
		} else {
			sum += float64(v)
		}
	}
	return sum / float64(n)
}

// Duration converts a PCM byte count into playback time.
func Duration(numBytes int) time.Duration {
	samples := numBytes / BytesPerSample
	return time.Duration(samples) * time.Second / SampleRate
}

func bytesForDuration(d time.Duration) int {
	return int(d.Seconds() * SampleRate * BytesPerSample)
}
