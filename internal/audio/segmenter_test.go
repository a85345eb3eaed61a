package audio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tone builds a constant-amplitude 16-bit LE PCM clip.
func tone(amp int16, d time.Duration) []byte {
	n := int(d.Seconds() * SampleRate)
	b := make([]byte, n*BytesPerSample)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(b[i*BytesPerSample:], uint16(amp))
	}
	return b
}

func TestLoudness(t *testing.T) {
	assert.InDelta(t, 2000, Loudness(tone(2000, 20*time.Millisecond)), 0.01)
	assert.InDelta(t, 2000, Loudness(tone(-2000, 20*time.Millisecond)), 0.01)
	assert.Zero(t, Loudness(nil))
	assert.Zero(t, Loudness([]byte{0x01}), "odd-length frame decodes as silence")
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, Duration(SampleRate*BytesPerSample))
	assert.Equal(t, 500*time.Millisecond, Duration(SampleRate*BytesPerSample/2))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// feed pushes d worth of audio in 20ms frames, advancing the clock in step.
func feed(s *Segmenter, clk *fakeClock, amp int16, d time.Duration) bool {
	const frame = 20 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += frame {
		clk.advance(frame)
		if s.Consume(tone(amp, frame)) {
			return true
		}
	}
	return false
}

func TestBoundaryAfterSilenceHold(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := NewSegmenter(Config{Now: clk.now})

	require.False(t, feed(s, clk, 2000, 1200*time.Millisecond), "no boundary during speech")
	require.True(t, feed(s, clk, 0, 2*time.Second), "boundary after sustained silence")

	pcm := s.Drain()
	assert.Greater(t, len(pcm), 0)
	assert.Zero(t, s.Buffered(), "drain resets the buffer")
}

func TestNoBoundaryWithoutSpeech(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := NewSegmenter(Config{Now: clk.now})

	assert.False(t, feed(s, clk, 0, 5*time.Second), "silence alone never bounds an utterance")
}

func TestMinSpeechKeepsBuffering(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := NewSegmenter(Config{Now: clk.now})

	// 200ms of speech then just over the silence hold: total audio is
	// still under the minimum, so the segmenter keeps waiting.
	require.False(t, feed(s, clk, 2000, 200*time.Millisecond))
	require.False(t, feed(s, clk, 0, 600*time.Millisecond))

	// More silence pushes the buffer past the minimum and the hold has
	// long elapsed, so the boundary fires.
	assert.True(t, feed(s, clk, 0, 2*time.Second))
}

func TestMaxUtteranceCap(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := NewSegmenter(Config{Now: clk.now})

	assert.True(t, feed(s, clk, 2000, 11*time.Second), "continuous sound is force-bounded at the cap")
}

func TestConsumeAfterDrainStartsFresh(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := NewSegmenter(Config{Now: clk.now})

	require.True(t, feed(s, clk, 2000, 11*time.Second))
	s.Drain()

	// Post-drain silence must not bound: speechSeen was reset.
	assert.False(t, feed(s, clk, 0, 3*time.Second))
}
