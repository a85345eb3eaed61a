package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CallSessionRepository interface {
	Upsert(ctx context.Context, s *models.CallSession) error
	GetByCallUUID(ctx context.Context, callUUID string) (*models.CallSession, error)
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.CallSession, error)
	ListByLoan(ctx context.Context, tenantID, loanNo string) ([]models.CallSession, error)
	SetAnalysis(ctx context.Context, callUUID string, analysis models.CallAnalysis) error
}

type callSessionRepo struct {
	col *mongo.Collection
}

func NewCallSessionRepo(db *mongo.Database) CallSessionRepository {
	return &callSessionRepo{col: db.Collection("call_sessions")}
}

// Upsert writes the full session document keyed by call_uuid. The finalize
// pipeline calls this with the completed transcript; the answer webhook with
// the initial one.
func (r *callSessionRepo) Upsert(ctx context.Context, s *models.CallSession) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_uuid": s.CallUUID},
		bson.M{"$set": s},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *callSessionRepo) GetByCallUUID(ctx context.Context, callUUID string) (*models.CallSession, error) {
	var s models.CallSession
	err := r.col.FindOne(ctx, bson.M{"call_uuid": callUUID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *callSessionRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.CallSession, error) {
	if limit <= 0 {
		limit = 50
	}

	cur, err := r.col.Find(ctx,
		bson.M{"tenant_id": tenantID},
		options.Find().SetSort(bson.M{"started_at": -1}).SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CallSession
	err = cur.All(ctx, &out)
	return out, err
}

func (r *callSessionRepo) ListByLoan(ctx context.Context, tenantID, loanNo string) ([]models.CallSession, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"tenant_id": tenantID, "loan_no": loanNo},
		options.Find().SetSort(bson.M{"started_at": -1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CallSession
	err = cur.All(ctx, &out)
	return out, err
}

func (r *callSessionRepo) SetAnalysis(ctx context.Context, callUUID string, analysis models.CallAnalysis) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"call_uuid": callUUID},
		bson.M{"$set": bson.M{"ai_analysis": analysis}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}
