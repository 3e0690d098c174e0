package voice

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the native-audio live model the assistant runs on.
const DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

// DefaultVoice is the prebuilt voice used for assistant speech.
const DefaultVoice = "Zephyr"

const systemInstruction = "You are the AutoTrack Pro Voice Assistant. " +
	"You help users search for vehicles or register new ones. You are " +
	"efficient, professional, and friendly. When searching, if a vehicle " +
	"is found, describe its key details. If not found, offer to help them " +
	"register it."

// GenAIDialer opens live sessions against the Gemini API.
type GenAIDialer struct {
	APIKey string
	Model  string
	Voice  string
}

func vehicleTools() []*genai.Tool {
	search := &genai.FunctionDeclaration{
		Name:        ToolSearchVehicle,
		Description: "Find a vehicle by its number plate.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"plate": {Type: genai.TypeString, Description: "The number plate to search for."},
			},
			Required: []string{"plate"},
		},
	}

	add := &genai.FunctionDeclaration{
		Name:        ToolAddVehicle,
		Description: "Register a new vehicle to the database.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"plate":   {Type: genai.TypeString},
				"vin":     {Type: genai.TypeString},
				"type":    {Type: genai.TypeString, Enum: []string{"Car", "Truck", "Bus", "Motorcycle"}},
				"model":   {Type: genai.TypeString},
				"year":    {Type: genai.TypeString},
				"color":   {Type: genai.TypeString},
				"owner":   {Type: genai.TypeString},
				"history": {Type: genai.TypeString},
			},
			Required: []string{"plate", "vin", "type", "model", "year", "color", "owner"},
		},
	}

	return []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{search, add}}}
}

func (d *GenAIDialer) Dial(ctx context.Context) (LiveSession, error) {
	if d.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	model := d.Model
	if model == "" {
		model = DefaultModel
	}
	voice := d.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  d.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	sess, err := client.Live.Connect(ctx, model, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		SystemInstruction:        genai.NewContentFromText(systemInstruction, genai.RoleUser),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		Tools:                    vehicleTools(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open live session: %w", err)
	}

	return &genaiSession{sess: sess}, nil
}

// genaiSession adapts *genai.Session to LiveSession. One server message can
// carry several logical events, so translated events queue up and Receive
// hands them out one at a time.
type genaiSession struct {
	sess    *genai.Session
	pending []Event
}

func (g *genaiSession) SendAudio(pcm []byte) error {
	return g.sess.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			Data:     pcm,
			MIMEType: fmt.Sprintf("audio/pcm;rate=%d", InputSampleRate),
		},
	})
}

func (g *genaiSession) SendToolResponse(callID, name, result string) error {
	return g.sess.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:       callID,
			Name:     name,
			Response: map[string]any{"result": result},
		}},
	})
}

func (g *genaiSession) Receive() (Event, error) {
	for len(g.pending) == 0 {
		msg, err := g.sess.Receive()
		if err != nil {
			return nil, err
		}
		g.pending = translate(msg)
	}
	ev := g.pending[0]
	g.pending = g.pending[1:]
	return ev, nil
}

func (g *genaiSession) Close() error {
	return g.sess.Close()
}

func translate(msg *genai.LiveServerMessage) []Event {
	var events []Event

	if sc := msg.ServerContent; sc != nil {
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			events = append(events, EventTranscript{Speaker: SpeakerUser, Text: sc.InputTranscription.Text})
		}
		if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
			events = append(events, EventTranscript{Speaker: SpeakerAssistant, Text: sc.OutputTranscription.Text})
		}
		if sc.ModelTurn != nil {
			for _, part := range sc.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					events = append(events, EventAudio{PCM: part.InlineData.Data})
				}
			}
		}
		if sc.Interrupted {
			events = append(events, EventInterrupted{})
		}
	}

	if tc := msg.ToolCall; tc != nil {
		for _, fc := range tc.FunctionCalls {
			events = append(events, EventToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
	}

	return events
}
