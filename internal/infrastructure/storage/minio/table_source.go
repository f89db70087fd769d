package minio

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// TableSource serves table files from bucket under prefix.
type TableSource struct {
	client *Client
	bucket string
	prefix string
}

func NewTableSource(client *Client, bucket, prefix string) *TableSource {
	return &TableSource{client: client, bucket: bucket, prefix: prefix}
}

// Open implements tables.Source. A missing object yields ErrCodeTableMissing.
func (s *TableSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := path.Join(s.prefix, name)
	if _, err := s.client.api.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil, errors.New(errors.ErrCodeTableMissing, "table not found").WithDetail(s.bucket + "/" + key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat table").WithDetail(key)
	}
	r, err := s.client.api.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open table").WithDetail(key)
	}
	return r, nil
}

var _ tables.Source = (*TableSource)(nil)

//Personal.AI order the ending
