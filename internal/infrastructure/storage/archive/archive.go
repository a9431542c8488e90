// Package archive selects the object store that receives generation run
// snapshots.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/MolSieve/internal/config"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolSieve/internal/infrastructure/storage/s3"
	"github.com/turtacn/MolSieve/pkg/errors"
)

const ContentTypeJSON = "application/json"

// Store is satisfied by both the MinIO client and the S3 store.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Ping(ctx context.Context) error
}

var (
	_ Store = (*minio.Client)(nil)
	_ Store = (*s3.Store)(nil)
	_ Store = Nop{}
)

// RunKey returns the object key for a run archived at the given time.
func RunKey(runID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("runs/%04d/%02d/%02d/%s.json", at.Year(), int(at.Month()), at.Day(), runID)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Put(context.Context, string, []byte, string) error { return nil }
func (Nop) Ping(context.Context) error                          { return nil }

// New builds the configured backend.  "none" and the empty string select Nop.
func New(ctx context.Context, cfg config.StorageConfig, log logging.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.DefaultStorageBackend:
		return Nop{}, nil
	case "minio":
		c, err := minio.NewClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "s3":
		s, err := s3.New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown storage backend %q", cfg.Backend)
	}
}

//Personal.AI order the ending
