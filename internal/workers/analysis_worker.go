package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/outcome"
	"github.com/vocollect/vocollect/internal/providers/llm"
	mongorepo "github.com/vocollect/vocollect/internal/repositories/mongo"
	"github.com/vocollect/vocollect/internal/services"
	"github.com/vocollect/vocollect/internal/storage"
)

// AnalysisWorkerPool consumes finalized call sessions from a redis stream,
// runs model analysis, resolves the report outcome, and writes everything
// back. NumWorkers bounds how many analyses run concurrently.
type AnalysisWorkerPool struct {
	Redis     *redis.Client
	Sessions  mongorepo.CallSessionRepository
	Borrowers services.BorrowerService
	Analyzer  *llm.Analyzer

	// Archive receives the raw transcript JSON when configured. Optional.
	Archive storage.Uploader

	Logger     *logrus.Logger
	NumWorkers int

	Stream         string
	Group          string
	ConsumerPrefix string

	Now func() time.Time
}

func (p *AnalysisWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Sessions == nil || p.Analyzer == nil {
		return errors.New("AnalysisWorkerPool missing dependency: Redis/Sessions/Analyzer must be set")
	}
	if p.Stream == "" {
		p.Stream = services.AnalysisStream
	}
	if p.Group == "" {
		p.Group = "analysis-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	if p.Now == nil {
		p.Now = time.Now
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *AnalysisWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *AnalysisWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	raw, _ := msg.Values["session"].(string)
	if raw == "" {
		return
	}

	var session models.CallSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		p.Logger.WithError(err).WithField("redis_id", msg.ID).Warn("undecodable session payload")
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":  msg.ID,
		"call_uuid": session.CallUUID,
		"tenant_id": session.TenantID,
		"loan_no":   session.LoanNo,
	})

	statusCh := "call:" + session.CallUUID + ":status"
	_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"analyzing"}`).Err()

	var analysis models.CallAnalysis
	if len(session.Conversation) < 2 {
		analysis = models.CallAnalysis{
			Summary:   "No meaningful conversation detected",
			Sentiment: "No Response",
			Intent:    "No Response",
		}
	} else {
		var err error
		analysis, err = p.Analyzer.Analyze(ctx, session.Conversation)
		if err != nil {
			log.WithError(err).Warn("analysis degraded to neutral record")
		}
	}

	// The transport saw the call drop; the model cannot override that.
	if session.TransportCut {
		analysis.MidCall = true
	}
	session.Analysis = &analysis

	// The finalized session document already exists; only the analysis is new.
	if err := p.Sessions.SetAnalysis(ctx, session.CallUUID, analysis); err != nil {
		log.WithError(err).Error("failed to persist analysis")
	}

	if session.TenantID != "" && session.LoanNo != "" && p.Borrowers != nil {
		p.applyToBorrower(ctx, log, &session)
	}

	if p.Archive != nil {
		p.archiveTranscript(ctx, log, &session)
	}

	done, _ := json.Marshal(map[string]any{
		"type":      "analysis_complete",
		"call_uuid": session.CallUUID,
		"intent":    analysis.Intent,
		"sentiment": analysis.Sentiment,
		"mid_call":  analysis.MidCall,
	})
	_ = p.Redis.Publish(ctx, statusCh, string(done)).Err()
	log.WithField("intent", analysis.Intent).Info("post-call analysis complete")
}

func (p *AnalysisWorkerPool) applyToBorrower(ctx context.Context, log *logrus.Entry, session *models.CallSession) {
	category := "Consistent"
	name := "Borrower"
	if b, err := p.Borrowers.Get(ctx, session.TenantID, session.LoanNo); err == nil {
		if b.PaymentCategory != "" {
			category = b.PaymentCategory
		}
		if b.Name != "" {
			name = b.Name
		}
	} else {
		log.WithError(err).Warn("borrower lookup failed during reporting")
	}

	paymentDate := ""
	if session.Analysis.PaymentDate != nil {
		paymentDate = *session.Analysis.PaymentDate
	}

	rec := outcome.Resolve(outcome.ResolveInput{
		Intent:       session.Analysis.Intent,
		PaymentDate:  paymentDate,
		Category:     category,
		BorrowerName: name,
		BorrowerID:   session.LoanNo,
		MidCall:      session.Analysis.MidCall,
		Now:          p.Now(),
	})

	if err := p.Borrowers.ApplyOutcome(ctx, session.TenantID, session.LoanNo, session, rec); err != nil {
		log.WithError(err).Error("failed to apply outcome to borrower")
	}
}

func (p *AnalysisWorkerPool) archiveTranscript(ctx context.Context, log *logrus.Entry, session *models.CallSession) {
	body, err := json.Marshal(session)
	if err != nil {
		log.WithError(err).Warn("failed to marshal transcript for archive")
		return
	}
	key := storage.TranscriptKey(session.TenantID, session.CallUUID)
	if _, err := p.Archive.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		log.WithError(err).Warn("transcript archive failed")
	}
}
