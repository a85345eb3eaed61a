package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vocollect/vocollect/config"
	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/providers/llm"
	"github.com/vocollect/vocollect/internal/providers/stt"
	"github.com/vocollect/vocollect/internal/providers/tts"
	mongorepo "github.com/vocollect/vocollect/internal/repositories/mongo"
	"github.com/vocollect/vocollect/internal/telephony"
	"github.com/vocollect/vocollect/internal/turn"
	"github.com/vocollect/vocollect/internal/utils"
)

// AnalysisStream is the redis stream carrying finalized sessions to the
// post-call analysis workers.
const AnalysisStream = "calls:analysis"

const (
	placeAttempts   = 3
	placeRetryDelay = time.Second
)

// PlaceResult reports one outbound call attempt chain.
type PlaceResult struct {
	LoanNo   string `json:"loan_no"`
	Success  bool   `json:"success"`
	CallUUID string `json:"call_uuid,omitempty"`
	// Escalated is set when all attempts failed and the borrower was
	// routed to the manual process.
	Escalated bool   `json:"escalated,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkResult aggregates a campaign trigger.
type BulkResult struct {
	Total      int           `json:"total_requests"`
	Successful int           `json:"successful_calls"`
	Failed     int           `json:"failed_calls"`
	Results    []PlaceResult `json:"results"`
}

// AnswerParams come from the voice provider's answer webhook.
type AnswerParams struct {
	CallUUID          string
	TenantID          string
	LoanNo            string
	PreferredLanguage string
}

type CallService interface {
	Place(ctx context.Context, tenantID, loanNo string) (*PlaceResult, error)
	PlaceBulk(ctx context.Context, tenantID string, loanNos []string) *BulkResult
	Answer(ctx context.Context, p AnswerParams) ([]map[string]any, error)
	// AttachStream binds the call's audio websocket to a new turn
	// coordinator and speaks the greeting.
	AttachStream(ctx context.Context, callUUID string, sink turn.AudioSink) (*turn.Coordinator, error)
	HandleEvent(ctx context.Context, callUUID, status string) error
	Finalize(ctx context.Context, callUUID string, reason turn.FinalizeReason)
	Registry() *CallRegistry
}

type CallServiceConfig struct {
	Registry  *CallRegistry
	Sessions  mongorepo.CallSessionRepository
	Borrowers BorrowerService
	Voice     telephony.Provider
	Redis     *redis.Client
	Policies  map[string]config.LanguagePolicy

	STT stt.Provider
	TTS tts.Provider
	LLM llm.Provider

	PublicBaseURL string
	FromNumber    string

	Logger *logrus.Logger
	Now    func() time.Time
}

type callService struct {
	cfg CallServiceConfig
	log *logrus.Logger
	now func() time.Time
}

func NewCallService(cfg CallServiceConfig) CallService {
	if cfg.Registry == nil {
		cfg.Registry = NewCallRegistry()
	}
	if cfg.Policies == nil {
		cfg.Policies = config.LoadPolicies()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &callService{cfg: cfg, log: cfg.Logger, now: cfg.Now}
}

func (s *callService) Registry() *CallRegistry { return s.cfg.Registry }

// Place dials a borrower with up to three attempts. When every attempt fails
// to connect the borrower is escalated to the manual process instead of
// being silently dropped.
func (s *callService) Place(ctx context.Context, tenantID, loanNo string) (*PlaceResult, error) {
	const op = "CallService.Place"

	b, err := s.cfg.Borrowers.Get(ctx, tenantID, loanNo)
	if err != nil {
		return nil, err
	}
	if b.CallInProgress {
		return nil, utils.E(utils.CodeConflict, op, "call already in progress for borrower", nil)
	}

	lang := config.NormalizeLanguage(b.PreferredLanguage)
	if err := s.cfg.Borrowers.MarkCallInProgress(ctx, tenantID, loanNo, true); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= placeAttempts; attempt++ {
		callUUID, err := s.cfg.Voice.PlaceCall(ctx, telephony.CallRequest{
			To:       b.Phone,
			Language: lang,
			TenantID: tenantID,
			LoanNo:   loanNo,
		})
		if err == nil {
			// Track the dial so a terminal provider event can release the
			// borrower even if the call is never answered.
			s.cfg.Registry.Put(callUUID, &ActiveCall{
				Session: &models.CallSession{
					CallUUID:          callUUID,
					TenantID:          tenantID,
					LoanNo:            loanNo,
					PreferredLanguage: lang,
				},
				Pending: true,
			})
			s.log.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"loan_no":   loanNo,
				"call_uuid": callUUID,
				"attempt":   attempt,
			}).Info("outbound call initiated")
			return &PlaceResult{LoanNo: loanNo, Success: true, CallUUID: callUUID}, nil
		}

		lastErr = err
		s.log.WithError(err).WithFields(logrus.Fields{
			"loan_no": loanNo,
			"attempt": attempt,
		}).Warn("call attempt failed to connect")

		if attempt < placeAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(placeRetryDelay):
			}
		}
	}

	draft := callFailureDraft(loanNo)
	summary := "All call attempts failed to connect (3 retries). Initiating Manual Process."
	if err := s.cfg.Borrowers.MarkEscalated(ctx, tenantID, loanNo, summary, draft); err != nil {
		s.log.WithError(err).WithField("loan_no", loanNo).Error("failed to record escalation")
	}

	return &PlaceResult{
		LoanNo:    loanNo,
		Escalated: true,
		Error:     fmt.Sprintf("all attempts failed: %v", lastErr),
	}, nil
}

func (s *callService) PlaceBulk(ctx context.Context, tenantID string, loanNos []string) *BulkResult {
	out := &BulkResult{Total: len(loanNos), Results: make([]PlaceResult, len(loanNos))}

	var wg sync.WaitGroup
	for i, loanNo := range loanNos {
		wg.Add(1)
		go func(i int, loanNo string) {
			defer wg.Done()
			res, err := s.Place(ctx, tenantID, loanNo)
			if err != nil {
				out.Results[i] = PlaceResult{LoanNo: loanNo, Error: err.Error()}
				return
			}
			out.Results[i] = *res
		}(i, loanNo)
	}
	wg.Wait()

	for _, r := range out.Results {
		if r.Success {
			out.Successful++
		} else {
			out.Failed++
		}
	}
	return out
}

// Answer creates the call session, records the greeting, and returns the
// call control object bridging audio onto the websocket endpoint.
func (s *callService) Answer(ctx context.Context, p AnswerParams) ([]map[string]any, error) {
	const op = "CallService.Answer"

	if p.CallUUID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call uuid is required", nil)
	}

	lang := config.NormalizeLanguage(p.PreferredLanguage)
	policy := s.cfg.Policies[lang]

	var borrower *models.Borrower
	if p.TenantID != "" && p.LoanNo != "" {
		b, err := s.cfg.Borrowers.Get(ctx, p.TenantID, p.LoanNo)
		if err != nil {
			s.log.WithError(err).WithField("loan_no", p.LoanNo).Warn("borrower lookup failed, proceeding without context")
		} else {
			borrower = b
		}
	}

	now := s.now().UTC()
	greeting := turn.BuildGreeting(policy, lang, borrower)
	session := &models.CallSession{
		CallUUID:          p.CallUUID,
		TenantID:          p.TenantID,
		LoanNo:            p.LoanNo,
		PreferredLanguage: lang,
		FinalLanguage:     lang,
		Conversation: []models.ConversationEntry{{
			Speaker:   models.SpeakerAssistant,
			Text:      greeting,
			Timestamp: now,
			Language:  lang,
		}},
		Status:    models.CallStatusActive,
		StartedAt: now,
	}

	if err := s.cfg.Sessions.Upsert(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist session", err)
	}

	s.cfg.Registry.Put(p.CallUUID, &ActiveCall{Session: session})

	s.log.WithFields(logrus.Fields{
		"call_uuid": p.CallUUID,
		"tenant_id": p.TenantID,
		"loan_no":   p.LoanNo,
		"language":  lang,
	}).Info("call answered")

	return telephony.ConnectNCCO(s.cfg.PublicBaseURL, s.cfg.FromNumber, p.CallUUID, p.TenantID), nil
}

func (s *callService) AttachStream(ctx context.Context, callUUID string, sink turn.AudioSink) (*turn.Coordinator, error) {
	const op = "CallService.AttachStream"

	call, ok := s.cfg.Registry.Get(callUUID)
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "no active call for uuid", nil)
	}

	var borrower *models.Borrower
	if call.Session.TenantID != "" && call.Session.LoanNo != "" {
		if b, err := s.cfg.Borrowers.Get(ctx, call.Session.TenantID, call.Session.LoanNo); err == nil {
			borrower = b
		}
	}

	coord := turn.NewCoordinator(turn.CoordinatorConfig{
		Session:     call.Session,
		Borrower:    borrower,
		Policies:    s.cfg.Policies,
		Transcriber: s.cfg.STT,
		Completion:  s.cfg.LLM,
		Synthesizer: s.cfg.TTS,
		Sink:        sink,
		Finalize: func(reason turn.FinalizeReason) {
			s.Finalize(context.Background(), callUUID, reason)
		},
		Logger: logrus.NewEntry(s.log).WithField("call_uuid", callUUID),
		Now:    s.now,
	})
	call.Coordinator = coord

	if err := coord.Greet(ctx); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "greeting failed", err)
	}
	return coord, nil
}

func (s *callService) HandleEvent(ctx context.Context, callUUID, status string) error {
	s.log.WithFields(logrus.Fields{"call_uuid": callUUID, "status": status}).Info("call event")

	switch status {
	case "completed", "failed", "timeout", "unanswered", "rejected", "busy", "cancelled":
		s.Finalize(ctx, callUUID, turn.ReasonProviderCompleted)
	}
	return nil
}

// Finalize closes the call exactly once: snapshot the transcript, persist
// the session, and hand it to the analysis workers. Safe to call from any
// trigger; duplicates are no-ops.
func (s *callService) Finalize(ctx context.Context, callUUID string, reason turn.FinalizeReason) {
	call, ok := s.cfg.Registry.Get(callUUID)
	if !ok {
		return
	}

	call.FinalizeOnce(func() {
		log := s.log.WithFields(logrus.Fields{"call_uuid": callUUID, "reason": string(reason)})

		if call.Pending {
			// Dialed but never answered. There is no session to persist,
			// only a borrower to release.
			if call.Session.TenantID != "" && call.Session.LoanNo != "" {
				if err := s.cfg.Borrowers.MarkCallInProgress(ctx, call.Session.TenantID, call.Session.LoanNo, false); err != nil {
					log.WithError(err).Error("failed to release borrower after unanswered call")
				}
			}
			s.cfg.Registry.Remove(callUUID)
			log.Info("call ended before answer")
			return
		}

		if call.Coordinator != nil {
			call.Coordinator.Terminate()
			call.Session.Conversation = call.Coordinator.Conversation()
		}

		now := s.now().UTC()
		call.Session.Status = models.CallStatusCompleted
		call.Session.EndedAt = &now
		call.Session.DurationSeconds = int64(now.Sub(call.Session.StartedAt).Seconds())
		call.Session.TransportCut = reason == turn.ReasonDisconnect

		if err := s.cfg.Sessions.Upsert(ctx, call.Session); err != nil {
			log.WithError(err).Error("failed to persist finalized session")
		}

		payload, err := json.Marshal(call.Session)
		if err != nil {
			log.WithError(err).Error("failed to marshal session for analysis")
		} else if s.cfg.Redis != nil {
			err := s.cfg.Redis.XAdd(ctx, &redis.XAddArgs{
				Stream: AnalysisStream,
				Values: map[string]any{
					"call_uuid": callUUID,
					"session":   string(payload),
				},
			}).Err()
			if err != nil {
				log.WithError(err).Error("failed to enqueue analysis")
			}
		}

		s.cfg.Registry.Remove(callUUID)
		log.WithField("duration_seconds", call.Session.DurationSeconds).Info("call finalized")
	})
}

func callFailureDraft(loanNo string) *models.NotificationDraft {
	return &models.NotificationDraft{
		To:      "Area Manager",
		Subject: fmt.Sprintf("Action Required: Multiple Call Failures - Borrower %s", loanNo),
		Body:    fmt.Sprintf("Hi Area Manager,\n\nWe attempted to call Borrower (No: %s) 3 times, but all calls failed to connect (Zero duration).\n\nWe are escalating this to the Manual Process for you to initiate manual intervention.\n\nBest regards,\nAI Collection System", loanNo),
	}
}
