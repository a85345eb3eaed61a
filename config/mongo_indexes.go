package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func MongoDBName() string {
	if v := os.Getenv("MONGO_DB"); v != "" {
		return v
	}
	return "vocollect"
}

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	db := MongoClient.Database(MongoDBName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// call_sessions indexes
	sessions := db.Collection("call_sessions")
	_, err := sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// 1) One document per provider call uuid; finalize upserts into it
		{
			Keys: bson.D{{Key: "call_uuid", Value: 1}},
			Options: options.Index().
				SetName("uniq_call_uuid").
				SetUnique(true),
		},
		// 2) Tenant dashboards list newest first
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "started_at", Value: -1}},
			Options: options.Index().SetName("by_tenant_started"),
		},
		// 3) Call history per loan account
		{
			Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "loan_no", Value: 1}, {Key: "started_at", Value: -1}},
			Options: options.Index().SetName("by_tenant_loan"),
		},
	})
	return err
}
