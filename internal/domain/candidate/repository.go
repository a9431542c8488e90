package candidate

import (
	"context"

	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// RunRepository persists completed generation runs with their ranked
// candidates.  GetRun fails with an ErrCodeNotFound error for unknown IDs.
type RunRepository interface {
	SaveRun(ctx context.Context, run *ptypes.RunDetail) error
	GetRun(ctx context.Context, id string) (*ptypes.RunDetail, error)
	ListRuns(ctx context.Context, limit, offset int) ([]ptypes.RunSummary, error)
}

//Personal.AI order the ending
