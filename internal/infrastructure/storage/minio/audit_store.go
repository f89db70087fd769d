package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

const (
	auditPrefix = "audits"
	latestName  = "latest.json"
)

// AuditStore writes run reports to bucket as audits/<run id>.json and keeps
// audits/latest.json pointing at the newest one.
type AuditStore struct {
	client *Client
	bucket string
	log    logging.Logger
}

func NewAuditStore(client *Client, bucket string, log logging.Logger) *AuditStore {
	return &AuditStore{client: client, bucket: bucket, log: log}
}

// SaveAudit implements regionalization.ArtifactStore.
func (s *AuditStore) SaveAudit(ctx context.Context, audit *regionalization.Audit) (string, error) {
	data, err := json.MarshalIndent(audit, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode audit")
	}
	key := path.Join(auditPrefix, audit.RunID+".json")
	for _, name := range []string{key, path.Join(auditPrefix, latestName)} {
		_, err := s.client.api.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
			minio.PutObjectOptions{ContentType: "application/json"})
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload audit").WithDetail(name)
		}
	}
	s.log.Debug("audit uploaded", logging.String("bucket", s.bucket), logging.String("key", key))
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// LatestAudit reads the newest stored report. ok is false when none exists.
func (s *AuditStore) LatestAudit(ctx context.Context) (audit *regionalization.Audit, ok bool, err error) {
	key := path.Join(auditPrefix, latestName)
	if _, err := s.client.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat audit")
	}
	r, err := s.client.api.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to read audit")
	}
	defer r.Close()
	audit = &regionalization.Audit{}
	if err := json.NewDecoder(r).Decode(audit); err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode audit")
	}
	return audit, true, nil
}

var _ regionalization.ArtifactStore = (*AuditStore)(nil)

//Personal.AI order the ending
