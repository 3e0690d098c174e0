package voice

// Tool names declared to the assistant at session open.
const (
	ToolSearchVehicle = "searchVehicle"
	ToolAddVehicle    = "addVehicle"
)

// Speaker labels for transcript lines.
const (
	SpeakerUser      = "You"
	SpeakerAssistant = "AI"
)

// Event is one inbound occurrence on the live session. Exactly one concrete
// type below is returned per Receive call.
type Event interface{ isEvent() }

// EventTranscript is a text fragment of what was said, by the user or by
// the assistant. Display-only.
type EventTranscript struct {
	Speaker string
	Text    string
}

// EventToolCall asks the application to run a named local operation. Every
// call must get exactly one response carrying the same correlation ID.
type EventToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// EventAudio carries one decoded PCM frame of assistant speech to schedule
// for playback.
type EventAudio struct {
	PCM []byte
}

// EventInterrupted signals barge-in: all scheduled output must be discarded
// and the playback cursor reset.
type EventInterrupted struct{}

// EventClosed signals the remote side ended the session.
type EventClosed struct{}

func (EventTranscript) isEvent()  {}
func (EventToolCall) isEvent()    {}
func (EventAudio) isEvent()       {}
func (EventInterrupted) isEvent() {}
func (EventClosed) isEvent()      {}
