package turn

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vocollect/vocollect/config"
	"github.com/vocollect/vocollect/internal/audio"
	"github.com/vocollect/vocollect/internal/models"
)

// State of a call's turn-taking machine.
type State string

const (
	StateGreeting   State = "greeting"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
	StateTerminated State = "terminated"
)

// FinalizeReason identifies which trigger ended a call. All three converge on
// the same finalize routine.
type FinalizeReason string

const (
	ReasonFarewell          FinalizeReason = "farewell"
	ReasonProviderCompleted FinalizeReason = "provider_completed"
	ReasonDisconnect        FinalizeReason = "transport_disconnect"
)

// Transcriber converts buffered caller audio into text. An empty result with
// nil error means the clip held no usable speech.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, language string) (string, error)
}

// Synthesizer renders assistant text as 16-bit/16kHz PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// Completion produces the next assistant utterance from the persona prompt
// and the conversation window.
type Completion interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AudioSink receives outbound synthesized audio for the call.
type AudioSink interface {
	WritePCM(pcm []byte) error
}

const (
	// defaultTailPadding absorbs transport jitter after the synthesized
	// audio nominally finishes playing before listening resumes.
	defaultTailPadding = 1500 * time.Millisecond
	// defaultEchoGrace is the window after the suppression deadline in
	// which buffered echo-tail audio is flushed instead of transcribed.
	defaultEchoGrace = 300 * time.Millisecond
)

// CoordinatorConfig wires one Coordinator. Session is required; Borrower may
// be nil when no profile was found.
type CoordinatorConfig struct {
	Session  *models.CallSession
	Borrower *models.Borrower
	Policies map[string]config.LanguagePolicy

	Transcriber Transcriber
	Completion  Completion
	Synthesizer Synthesizer
	Sink        AudioSink

	// Finalize is invoked at most once by the coordinator itself, when a
	// farewell terminates the call. The surrounding call registry guards
	// against racing triggers.
	Finalize func(reason FinalizeReason)

	Segmenter *audio.Segmenter
	Logger    *logrus.Entry

	TailPadding time.Duration
	EchoGrace   time.Duration
	Now         func() time.Time
}

// Coordinator is the per-call turn-taking state machine. It is driven by a
// single goroutine feeding inbound audio frames; the conversation log is
// additionally read by the finalize path, so mutations are mutex-guarded.
type Coordinator struct {
	mu      sync.Mutex
	session *models.CallSession

	borrower *models.Borrower
	policies map[string]config.LanguagePolicy

	seg    *audio.Segmenter
	filter *UtteranceFilter

	stt  Transcriber
	llm  Completion
	tts  Synthesizer
	sink AudioSink

	finalize func(FinalizeReason)
	log      *logrus.Entry

	tailPadding time.Duration
	echoGrace   time.Duration
	now         func() time.Time

	state         State
	speakingUntil time.Time
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Policies == nil {
		cfg.Policies = config.LoadPolicies()
	}
	if cfg.Segmenter == nil {
		cfg.Segmenter = audio.NewSegmenter(audio.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.New())
	}
	if cfg.TailPadding <= 0 {
		cfg.TailPadding = defaultTailPadding
	}
	if cfg.EchoGrace <= 0 {
		cfg.EchoGrace = defaultEchoGrace
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Finalize == nil {
		cfg.Finalize = func(FinalizeReason) {}
	}

	// Fillers from every language policy: callers mix languages mid-call,
	// so the noise gate cannot be tied to the current one.
	var fillers []string
	for _, p := range cfg.Policies {
		fillers = append(fillers, p.FillerWords...)
	}

	return &Coordinator{
		session:     cfg.Session,
		borrower:    cfg.Borrower,
		policies:    cfg.Policies,
		seg:         cfg.Segmenter,
		filter:      NewUtteranceFilter(fillers),
		stt:         cfg.Transcriber,
		llm:         cfg.Completion,
		tts:         cfg.Synthesizer,
		sink:        cfg.Sink,
		finalize:    cfg.Finalize,
		log:         cfg.Logger,
		tailPadding: cfg.TailPadding,
		echoGrace:   cfg.EchoGrace,
		now:         cfg.Now,
		state:       StateGreeting,
	}
}

// State returns the machine's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Conversation returns a copy of the conversation log.
func (c *Coordinator) Conversation() []models.ConversationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConversationEntry, len(c.session.Conversation))
	copy(out, c.session.Conversation)
	return out
}

// Terminate moves the machine to its terminal state without invoking the
// finalize callback. Used when an external trigger (provider event,
// transport disconnect) already owns finalization.
func (c *Coordinator) Terminate() {
	c.mu.Lock()
	c.state = StateTerminated
	c.mu.Unlock()
}

// Greet speaks the opening statement. The greeting is appended as the first
// conversation entry if the answer webhook has not already appended one.
func (c *Coordinator) Greet(ctx context.Context) error {
	c.mu.Lock()
	lang := c.language()
	policy := c.policies[lang]
	var greeting string
	if len(c.session.Conversation) > 0 && c.session.Conversation[0].Speaker == models.SpeakerAssistant {
		greeting = c.session.Conversation[0].Text
	} else {
		greeting = BuildGreeting(policy, lang, c.borrower)
		c.appendLocked(models.SpeakerAssistant, greeting, lang)
	}
	c.mu.Unlock()

	c.speak(ctx, greeting, lang)

	c.mu.Lock()
	if c.state != StateTerminated {
		c.state = StateListening
	}
	c.mu.Unlock()
	return nil
}

// HandleFrame processes one inbound audio frame. Frames arriving inside the
// suppression window are discarded; the first frame after it closes flushes
// the echo tail buffered while the assistant was speaking.
func (c *Coordinator) HandleFrame(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return nil
	}

	now := c.now()
	if !c.speakingUntil.IsZero() {
		if now.Before(c.speakingUntil) {
			c.mu.Unlock()
			return nil
		}
		if now.Sub(c.speakingUntil) < c.echoGrace {
			c.seg.Drain()
			c.speakingUntil = time.Time{}
			c.mu.Unlock()
			return nil
		}
		c.speakingUntil = time.Time{}
	}

	boundary := c.seg.Consume(frame)
	if !boundary {
		c.mu.Unlock()
		return nil
	}
	c.state = StateProcessing
	pcm := c.seg.Drain()
	lang := c.language()
	c.mu.Unlock()

	return c.processUtterance(ctx, pcm, lang)
}

func (c *Coordinator) processUtterance(ctx context.Context, pcm []byte, lang string) error {
	text, err := c.stt.Transcribe(ctx, pcm, lang)
	if err != nil {
		// Short or garbled audio is common; treat as a silent turn.
		c.log.WithError(err).Debug("transcription yielded nothing")
		c.backToListening()
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" || c.filter.IsNoise(text) {
		c.backToListening()
		return nil
	}

	c.mu.Lock()
	if detected := DetectLanguage(text); detected != c.session.FinalLanguage {
		c.session.FinalLanguage = detected
		lang = detected
	}
	policy := c.policies[lang]
	history := make([]models.ConversationEntry, len(c.session.Conversation))
	copy(history, c.session.Conversation)
	c.appendLocked(models.SpeakerCaller, text, lang)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"language": lang, "text": text}).Info("caller utterance")

	system := BuildSystemPrompt(policy, c.borrower)
	user := BuildUserMessage(history, text)

	reply, err := c.llm.Complete(ctx, system, user)
	reply = strings.TrimSpace(reply)
	if err != nil || reply == "" {
		if err != nil {
			c.log.WithError(err).Warn("completion failed, using canned acknowledgment")
		}
		reply = policy.FallbackAck
	}

	c.mu.Lock()
	c.appendLocked(models.SpeakerAssistant, reply, lang)
	c.state = StateSpeaking
	c.mu.Unlock()

	c.speak(ctx, reply, lang)

	if IsFarewell(reply, policy) {
		c.mu.Lock()
		c.state = StateTerminated
		c.mu.Unlock()
		c.finalize(ReasonFarewell)
		return nil
	}

	c.backToListening()
	return nil
}

// speak synthesizes and streams one assistant utterance, then opens the
// suppression window over its playback duration. A synthesis or transport
// failure downgrades the turn to text-only; it never wedges the session.
func (c *Coordinator) speak(ctx context.Context, text, lang string) {
	pcm, err := c.tts.Synthesize(ctx, text, lang)
	if err != nil || len(pcm) == 0 {
		if err != nil {
			c.log.WithError(err).Warn("synthesis failed, turn recorded text-only")
		}
		return
	}
	if err := c.sink.WritePCM(pcm); err != nil {
		c.log.WithError(err).Warn("audio send failed")
		return
	}

	c.mu.Lock()
	c.speakingUntil = c.now().Add(audio.Duration(len(pcm)) + c.tailPadding)
	// Anything captured while we were speaking is our own voice leaking
	// back; drop it now and again right after the window closes.
	c.seg.Drain()
	c.mu.Unlock()
}

func (c *Coordinator) backToListening() {
	c.mu.Lock()
	if c.state != StateTerminated {
		c.state = StateListening
	}
	c.mu.Unlock()
}

// language returns the call's current language. Callers must hold c.mu.
func (c *Coordinator) language() string {
	if c.session.FinalLanguage != "" {
		return c.session.FinalLanguage
	}
	return config.NormalizeLanguage(c.session.PreferredLanguage)
}

// appendLocked appends one conversation entry. Callers must hold c.mu.
func (c *Coordinator) appendLocked(speaker, text, lang string) {
	c.session.Conversation = append(c.session.Conversation, models.ConversationEntry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: c.now(),
		Language:  lang,
	})
}
