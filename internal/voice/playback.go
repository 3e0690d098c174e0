package voice

import (
	"sync"
	"time"
)

// Sink receives assistant audio frames with their computed start times.
// Flush discards anything handed over but not yet played.
type Sink interface {
	Play(pcm []byte, start time.Time)
	Flush()
}

// Scheduler lays inbound audio frames onto a gapless output timeline. A
// monotonically advancing cursor marks where the next frame begins: it is
// clamped forward to "now" if playback has drained, then advanced by each
// frame's duration so consecutive frames play back-to-back.
type Scheduler struct {
	mu   sync.Mutex
	next time.Time
	sink Sink
	now  func() time.Time
}

func NewScheduler(sink Sink, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{sink: sink, now: now}
}

// FrameDuration returns the playback time of a PCM frame at the output
// sample rate (16-bit mono).
func FrameDuration(pcm []byte) time.Duration {
	samples := len(pcm) / bytesPerSample
	return time.Duration(samples) * time.Second / OutputSampleRate
}

// Schedule assigns the frame a start time on the timeline and hands it to
// the sink.
func (s *Scheduler) Schedule(pcm []byte) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.next.Before(now) {
		s.next = now
	}
	start := s.next
	s.next = s.next.Add(FrameDuration(pcm))

	s.sink.Play(pcm, start)
	return start
}

// Interrupt discards all scheduled-but-unplayed audio and resets the cursor
// to "now", so the next frame starts immediately. Used for barge-in and for
// session teardown.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink.Flush()
	s.next = time.Time{}
}
