package store

import "context"

// blockRepository records which jobs are currently executing with
// concurrent execution disallowed (spec.md §4.3). It has two
// implementations behind this one interface: in-memory (non-clustered) and
// persisted (clustered, correctness-required since any instance must be
// able to see a block set by another).
type blockRepository interface {
	Block(ctx context.Context, jobID string) error
	Release(ctx context.Context, jobID string) error
	ReleaseAll(ctx context.Context) error
	IsBlocked(ctx context.Context, jobID string) (bool, error)
	ListBlocked(ctx context.Context) ([]string, error)
}
