package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
)

// sessionHelper opens database sessions in the two flavors spec.md §4.2
// describes: non-waiting sessions for bulk streams where staleness is
// acceptable, and waiting sessions where every query observes
// causally-consistent, non-stale results. SecondsToWaitForIndexing only
// switches the waiting binding on (see OpenWaiting); it sets no time limit.
type sessionHelper struct {
	client    *mongo.Client
	cols      *collections
	indexWait time.Duration
}

func newSessionHelper(client *mongo.Client, cols *collections, secondsToWaitForIndexing int) *sessionHelper {
	return &sessionHelper{
		client:    client,
		cols:      cols,
		indexWait: time.Duration(secondsToWaitForIndexing) * time.Second,
	}
}

// storeSession is the handle returned by Open/OpenWaiting. Every mutating
// call in this package goes through one; Close must always run, typically
// via defer, to dispose any causally-consistent driver session it opened.
type storeSession struct {
	ctx     context.Context
	cols    *collections
	mongoSession mongo.Session
}

// Open starts a non-waiting session: queries may observe a stale index.
// Used for bulk streams (GetJobKeys, GetTriggerKeys with index-friendly
// matchers, the Contains client-side scan) where staleness is acceptable.
func (h *sessionHelper) Open(ctx context.Context) (*storeSession, error) {
	return &storeSession{ctx: ctx, cols: h.cols}, nil
}

// OpenWaiting starts a causally-consistent driver session. When
// SecondsToWaitForIndexing is greater than zero, the returned context is
// bound to it, so every attached query waits for causally-consistent,
// non-stale results; otherwise the session is started but the context is
// left unbound. No time limit is applied to the wait. Close ends the driver
// session.
func (h *sessionHelper) OpenWaiting(ctx context.Context) (*storeSession, error) {
	sessOpts := options.Session().
		SetDefaultReadConcern(readconcern.Majority()).
		SetCausalConsistency(true)

	mongoSess, err := h.client.StartSession(sessOpts)
	if err != nil {
		return nil, err
	}

	waitCtx := ctx
	if h.indexWait > 0 {
		waitCtx = mongo.NewSessionContext(ctx, mongoSess)
	}

	return &storeSession{ctx: waitCtx, cols: h.cols, mongoSession: mongoSess}, nil
}

// Close disposes the session's driver resources, if any were opened.
func (s *storeSession) Close() {
	if s.mongoSession != nil {
		s.mongoSession.EndSession(s.ctx)
	}
}

func (s *storeSession) Context() context.Context { return s.ctx }
