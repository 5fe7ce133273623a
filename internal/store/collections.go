// Package store implements the job store core: the trigger state machine,
// misfire reconciliation, candidate acquisition, the fire/complete
// protocol, crash recovery, and the retry-wrapped operation surface that
// the scheduler runtime calls (spec.md §2, §6).
package store

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/config"
)

// collection names, before CollectionPrefix qualification.
const (
	collJobs                = "jobs"
	collTriggers             = "triggers"
	collCalendars            = "calendars"
	collSchedulers           = "schedulers"
	collPausedTriggerGroups  = "pausedTriggerGroups"
	collPausedJobGroups      = "pausedJobGroups"
	collBlockedJobs          = "blockedJobs"
)

// collections bundles every document-database collection the store reads
// and writes, already qualified by the configured CollectionPrefix.
type collections struct {
	jobs                *mongo.Collection
	triggers            *mongo.Collection
	calendars           *mongo.Collection
	schedulers          *mongo.Collection
	pausedTriggerGroups *mongo.Collection
	pausedJobGroups     *mongo.Collection
	blockedJobs         *mongo.Collection
}

func newCollections(db *mongo.Database, cfg *config.StoreConfig) *collections {
	return &collections{
		jobs:                db.Collection(cfg.CollectionName(collJobs)),
		triggers:            db.Collection(cfg.CollectionName(collTriggers)),
		calendars:           db.Collection(cfg.CollectionName(collCalendars)),
		schedulers:          db.Collection(cfg.CollectionName(collSchedulers)),
		pausedTriggerGroups: db.Collection(cfg.CollectionName(collPausedTriggerGroups)),
		pausedJobGroups:     db.Collection(cfg.CollectionName(collPausedJobGroups)),
		blockedJobs:         db.Collection(cfg.CollectionName(collBlockedJobs)),
	}
}
