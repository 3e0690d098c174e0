package voice

import "sync"

// transcriptLines is how many recent lines the rolling transcript keeps.
const transcriptLines = 5

// Transcript is a bounded rolling window of the most recent conversation
// fragments. Older lines are discarded; it has no effect on session state.
type Transcript struct {
	mu    sync.Mutex
	lines []string
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(speaker, text string) string {
	line := speaker + ": " + text
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > transcriptLines {
		t.lines = t.lines[len(t.lines)-transcriptLines:]
	}
	return line
}

// Lines returns a copy of the current window.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}
