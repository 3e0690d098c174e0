package voice

import "context"

// Audio wire parameters. Input frames are raw 16-bit little-endian mono PCM
// at 16 kHz; assistant speech comes back at 24 kHz.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
	bytesPerSample   = 2
)

// LiveSession is one open bidirectional session with the remote assistant.
// SendAudio is fire-and-forget per frame; Receive blocks until the next
// inbound event or returns an error when the session is gone.
type LiveSession interface {
	SendAudio(pcm []byte) error
	SendToolResponse(callID, name, result string) error
	Receive() (Event, error)
	Close() error
}

// Dialer opens a live session. Implementations declare the two vehicle
// tools and the audio configuration at connect time.
type Dialer interface {
	Dial(ctx context.Context) (LiveSession, error)
}

// Source is an acquired audio input (the user's microphone, or a relay of
// it). Frames is closed when the source is exhausted; Close releases the
// underlying device or connection.
type Source interface {
	Frames() <-chan []byte
	Close() error
}
