package store

import (
	"container/heap"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
)

// acquisitionEngine selects the next batch of fireable triggers and moves
// them from Waiting to Acquired under optimistic concurrency control
// (spec.md §4.6). Jobs with concurrent execution disallowed may contribute
// at most one trigger per batch; acquiredJobKeys tracks that exclusion
// across the whole call.
type acquisitionEngine struct {
	cols         *collections
	instanceName string
	pageSize     int
	fireInstance *fireInstanceGenerator

	// concurrencyCache memoizes ConcurrentExecutionDisallowed per job id for
	// the lifetime of a single AcquireNext call, avoiding a job lookup for
	// every candidate trigger that shares a job with one already seen.
	concurrencyCache map[string]bool
}

// candidate is one row pulled from the database before priority ordering.
type candidate struct {
	trigger model.Trigger
}

// candidateHeap orders candidates by next-fire-time ascending, then
// priority descending (spec.md §4.6).
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	ti, tj := h[i].trigger, h[j].trigger
	if !ti.NextFireTime.Equal(*tj.NextFireTime) {
		return ti.NextFireTime.Before(*tj.NextFireTime)
	}
	return ti.Priority > tj.Priority
}
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// AcquireNext selects up to maxCount triggers whose next-fire falls no
// later than noLaterThan+timeWindow, paging through Waiting candidates in
// _id order and taking each page's candidates by next-fire ascending /
// priority descending (the ordering holds within a page only, not across
// pages), excluding every job already represented in the returned batch
// when that job disallows concurrent execution (spec.md §4.6). Each selected
// trigger transitions Waiting -> Acquired under a CAS; a lost race simply
// drops that candidate and the scan moves on to the next candidate.
func (e *acquisitionEngine) AcquireNext(ctx context.Context, noLaterThan time.Time, maxCount int, timeWindow time.Duration) ([]model.Trigger, error) {
	upperLimit := noLaterThan.Add(timeWindow)
	acquiredJobKeys := make(map[string]struct{})
	e.concurrencyCache = make(map[string]bool)
	var acquired []model.Trigger
	var lastID string

	for len(acquired) < maxCount {
		page, err := e.fetchPage(ctx, upperLimit, lastID)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		lastID = page[len(page)-1].ID

		h := &candidateHeap{}
		for _, t := range page {
			heap.Push(h, candidate{trigger: t})
		}

		for h.Len() > 0 && len(acquired) < maxCount {
			c := heap.Pop(h).(candidate)
			t := c.trigger

			disallowed, err := e.concurrentExecutionDisallowed(ctx, t.JobID)
			if err != nil {
				return nil, err
			}
			if disallowed {
				if _, seen := acquiredJobKeys[t.JobID]; seen {
					continue
				}
			}

			fireInstanceID := e.fireInstance.Next()
			update := bson.M{"$set": bson.M{
				"state":          model.TriggerStateAcquired,
				"fireInstanceId": fireInstanceID,
			}}
			ok, err := casUpdate(ctx, e.cols.triggers, t.ID, t.Version, update)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue // lost the CAS race to a sibling instance; move on
			}

			t.State = model.TriggerStateAcquired
			t.FireInstanceID = fireInstanceID
			t.Version++
			acquired = append(acquired, t)
			if disallowed {
				acquiredJobKeys[t.JobID] = struct{}{}
			}
		}
	}
	return acquired, nil
}

func (e *acquisitionEngine) concurrentExecutionDisallowed(ctx context.Context, jobID string) (bool, error) {
	if v, ok := e.concurrencyCache[jobID]; ok {
		return v, nil
	}
	job, err := findByID[model.Job](ctx, e.cols.jobs, jobID)
	if err != nil {
		return false, err
	}
	disallowed := job != nil && job.ConcurrentExecutionDisallowed
	e.concurrencyCache[jobID] = disallowed
	return disallowed, nil
}

func (e *acquisitionEngine) fetchPage(ctx context.Context, upperLimit time.Time, afterID string) ([]model.Trigger, error) {
	filter := bson.M{
		"scheduler":         e.instanceName,
		"state":             model.TriggerStateWaiting,
		"nextFireTimeTicks": bson.M{"$gt": 0, "$lte": upperLimit.UnixNano()},
	}
	if afterID != "" {
		filter["_id"] = bson.M{"$gt": afterID}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(e.pageSize))

	cur, err := e.cols.triggers.Find(ctx, filter, opts)
	if err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var out []model.Trigger
	for cur.Next(ctx) {
		var t model.Trigger
		if err := cur.Decode(&t); err != nil {
			return nil, jobstoreerr.MapMongoError(err)
		}
		out = append(out, t)
	}
	if err := cur.Err(); err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	return out, nil
}
