package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

// TranscriptKey is the object name under which a call's transcript JSON is
// archived.
func TranscriptKey(tenantID, callUUID string) string {
	return fmt.Sprintf("transcripts/%s/%s.json", tenantID, callUUID)
}
