package store

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ravenjobstore/store/config"
	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
	"github.com/ravenjobstore/store/internal/ports"
)

// Store is the job store's public operation surface (spec.md §6): every
// method a scheduler runtime calls to persist jobs/triggers/calendars,
// drive the trigger lifecycle, and recover from a crash. A method that can
// lose a CAS race on the trigger state machine is either wrapped by the
// Retry Wrapper or, as AcquireNextTriggers does, skips the candidate it
// lost, so callers never see a ConcurrencyConflict.
type Store struct {
	cfg    *config.StoreConfig
	client *mongo.Client
	db     *mongo.Database
	cols   *collections
	ids    ids

	sessions *sessionHelper
	cache    *pausedGroupCache
	pausedGroups *pausedGroupRegistry
	blocks   blockRepository
	misfire  *misfireReconciler
	acquire  *acquisitionEngine
	fire     *fireProtocol
	recovery *recoveryCoordinator

	typeLoader ports.TypeLoader
	signaler   ports.Signaler
	logger     *slog.Logger

	stopCacheSub func()
}

// New wires a Store from an already-connected Mongo client, matching the
// teacher's pattern of accepting a live driver handle rather than dialing
// internally (keeps connection lifecycle owned by the host process).
func New(client *mongo.Client, cfg *config.StoreConfig, logger *slog.Logger) *Store {
	cfg.Sanitize()
	if logger == nil {
		logger = slog.Default()
	}

	db := client.Database(cfg.Database)
	cols := newCollections(db, cfg)
	instanceIDs := ids{instanceName: cfg.InstanceName}

	var blocks blockRepository
	if cfg.Clustered {
		blocks = &mongoBlockRepository{coll: cols.blockedJobs, instanceName: cfg.InstanceName}
	} else {
		blocks = newMemoryBlockRepository()
	}

	var cache *pausedGroupCache
	if cfg.Redis.Addr != "" && redisAddrValid(cfg.Redis.Addr) == nil {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = newPausedGroupCache(rdb)
	}

	s := &Store{
		cfg:      cfg,
		client:   client,
		db:       db,
		cols:     cols,
		ids:      instanceIDs,
		sessions: newSessionHelper(client, cols, cfg.SecondsToWaitForIndexing),
		cache:    cache,
		blocks:   blocks,
		logger:   logger,
	}
	s.pausedGroups = &pausedGroupRegistry{
		triggerGroups: cols.pausedTriggerGroups,
		jobGroups:     cols.pausedJobGroups,
		cache:         cache,
		instanceName:  cfg.InstanceName,
	}
	s.misfire = &misfireReconciler{cols: cols, instanceName: cfg.InstanceName, threshold: cfg.MisfireThreshold, logger: logger}
	s.acquire = &acquisitionEngine{cols: cols, instanceName: cfg.InstanceName, pageSize: 256, fireInstance: newFireInstanceGenerator()}
	s.fire = &fireProtocol{cols: cols, blocks: blocks}
	s.recovery = &recoveryCoordinator{cols: cols, blocks: blocks, pausedGroups: s.pausedGroups, ids: instanceIDs, logger: logger}
	return s
}

func (s *Store) withRetry(ctx context.Context, op func() error) error {
	return withRetry(ctx, s.logger, s.cfg.ConcurrencyErrorRetries, op)
}

// waitingCtx opens a causally-consistent session (spec.md §4.2) for a
// single-entity mutation or read that must never observe a stale index, and
// returns a context bound to it. Every CRUD/state-machine/acquisition/fire
// path in persist.go, query.go, acquire.go, fire.go and recovery.go is
// reached through one of these (or bulkCtx below). The paused-group
// registry calls made directly from store.go (group pause/resume, the
// Is*GroupPaused checks, GetPausedTriggerGroups) use the caller's ctx, and a
// method that calls another public method (PauseTrigger through
// RetrieveTrigger, for one) opens a nested session.
func (s *Store) waitingCtx(ctx context.Context) (context.Context, func(), error) {
	sess, err := s.sessions.OpenWaiting(ctx)
	if err != nil {
		return nil, nil, err
	}
	return sess.Context(), sess.Close, nil
}

// bulkCtx opens a non-waiting session for a full-collection scan (group key
// listings, group name distincts, the Contains client-side fallback) where a
// stale index is an acceptable cost for not opening a causally-consistent
// driver session.
func (s *Store) bulkCtx(ctx context.Context) (context.Context, func()) {
	sess, _ := s.sessions.Open(ctx)
	return sess.Context(), sess.Close
}

// Initialize wires the runtime's collaborators in and runs crash recovery
// (spec.md §4.8). It must be called once before any other method.
func (s *Store) Initialize(ctx context.Context, typeLoader ports.TypeLoader, signaler ports.Signaler) error {
	s.typeLoader = typeLoader
	s.signaler = signaler

	if s.cache != nil {
		stop, err := s.cache.Subscribe(ctx)
		if err != nil {
			return jobstoreerr.WrapTransient(err, "couldn't subscribe to paused-group cache invalidations")
		}
		s.stopCacheSub = stop
	}
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.recovery.Recover(ctx, time.Now())
}

// SchedulerStarted records the scheduler lifecycle transition and re-runs
// recovery, matching spec.md §4.8's guidance that a restart always
// revalidates in-flight state.
func (s *Store) SchedulerStarted(ctx context.Context) error {
	if err := s.upsertSchedulerRecord(ctx, model.SchedulerStarted); err != nil {
		return err
	}
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.recovery.Recover(ctx, time.Now())
}

func (s *Store) SchedulerPaused(ctx context.Context) error {
	return s.upsertSchedulerRecord(ctx, model.SchedulerPaused)
}

func (s *Store) SchedulerResumed(ctx context.Context) error {
	return s.upsertSchedulerRecord(ctx, model.SchedulerResumed)
}

// Shutdown stops the paused-group cache subscription and records the
// Shutdown lifecycle state on this instance's scheduler record. Jobs,
// triggers and block markers are left as they are, so another instance (or
// this one, on restart) can pick up exactly where this process left off.
func (s *Store) Shutdown(ctx context.Context) error {
	if s.stopCacheSub != nil {
		s.stopCacheSub()
	}
	return s.upsertSchedulerRecord(ctx, model.SchedulerShutdown)
}

func (s *Store) upsertSchedulerRecord(ctx context.Context, state model.SchedulerLifecycleState) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	id := "scheduler/" + s.cfg.InstanceName
	doc := model.SchedulerRecord{
		ID:              id,
		InstanceName:    s.cfg.InstanceName,
		LastCheckinTime: time.Now().UnixNano(),
		CheckinInterval: int64(s.cfg.SecondsToWaitForIndexing) * int64(time.Second),
		State:           state,
	}
	return upsertReplace(ctx, s.cols.schedulers, id, doc)
}

// --- Job persistence ---------------------------------------------------

// StoreJob persists a job. replace=false surfaces ObjectAlreadyExists when
// the key is taken (spec.md §7); replace=true overwrites unconditionally.
// When the hosting runtime supplied a TypeLoader, JobType is validated
// against it before the document is written.
func (s *Store) StoreJob(ctx context.Context, job model.Job, replace bool) error {
	if s.typeLoader != nil {
		if err := s.typeLoader.Resolve(ctx, job.JobType); err != nil {
			return jobstoreerr.JobPersistencef("unresolvable job type %q for %s: %v", job.JobType, job.Key(), err)
		}
	}
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	job.ID = s.ids.job(job.Key())
	job.Scheduler = s.cfg.InstanceName
	if replace {
		return upsertReplace(ctx, s.cols.jobs, job.ID, job)
	}
	return insertNew(ctx, s.cols.jobs, job)
}

// StoreJobAndTrigger persists a job and its trigger as one logical unit.
func (s *Store) StoreJobAndTrigger(ctx context.Context, job model.Job, trigger model.Trigger, replace bool) error {
	if err := s.StoreJob(ctx, job, replace); err != nil {
		return err
	}
	return s.StoreTrigger(ctx, trigger, replace)
}

// StoreJobsAndTriggers persists a bundle of jobs and their triggers
// (spec.md §6.1 NEW bulk import). Each job's own triggers persist
// sequentially (a trigger's initial state depends on its job already
// existing), but independent jobs fan out concurrently. The first error
// (for example a key collision with replace false) is returned and cancels
// the remaining writes; jobs and triggers already written are not rolled
// back.
func (s *Store) StoreJobsAndTriggers(ctx context.Context, jobs []model.Job, triggers map[model.JobKey][]model.Trigger, replace bool) error {
	limit := s.cfg.ThreadPoolSize
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := s.StoreJob(gctx, job, replace); err != nil {
				return err
			}
			for _, trig := range triggers[job.Key()] {
				if err := s.StoreTrigger(gctx, trig, replace); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Store) RemoveJob(ctx context.Context, key model.JobKey) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	id := s.ids.job(key)
	if _, err := s.cols.triggers.DeleteMany(ctx, bson.M{"jobId": id}); err != nil {
		return false, jobstoreerr.MapMongoError(err)
	}
	return deleteByID(ctx, s.cols.jobs, id)
}

func (s *Store) RemoveJobs(ctx context.Context, keys []model.JobKey) (bool, error) {
	allRemoved := true
	for _, k := range keys {
		removed, err := s.RemoveJob(ctx, k)
		if err != nil {
			return false, err
		}
		allRemoved = allRemoved && removed
	}
	return allRemoved, nil
}

func (s *Store) RetrieveJob(ctx context.Context, key model.JobKey) (*model.Job, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return findByID[model.Job](ctx, s.cols.jobs, s.ids.job(key))
}

func (s *Store) CheckJobExists(ctx context.Context, key model.JobKey) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	return existsByID(ctx, s.cols.jobs, s.ids.job(key))
}

func (s *Store) GetNumberOfJobs(ctx context.Context) (int64, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n, err := s.cols.jobs.CountDocuments(ctx, bson.M{"scheduler": s.cfg.InstanceName})
	if err != nil {
		return 0, jobstoreerr.MapMongoError(err)
	}
	return n, nil
}

// GetJobKeys returns every job key in groups matching m.
func (s *Store) GetJobKeys(ctx context.Context, m model.GroupMatcher) ([]model.JobKey, error) {
	ctx, done := s.bulkCtx(ctx)
	defer done()
	return groupKeys[model.Job](ctx, s.logger, s.cols.jobs, s.cfg.InstanceName, m, func(j model.Job) (string, model.JobKey) {
		return j.Group, j.Key()
	})
}

func (s *Store) GetJobGroupNames(ctx context.Context) ([]string, error) {
	ctx, done := s.bulkCtx(ctx)
	defer done()
	return distinctGroups(ctx, s.cols.jobs, s.cfg.InstanceName)
}

// --- Trigger persistence -------------------------------------------------

// StoreTrigger persists a trigger, resolving its initial state from the
// paused-group registry and current block state (spec.md §4.3).
func (s *Store) StoreTrigger(ctx context.Context, trig model.Trigger, replace bool) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	trig.ID = s.ids.trigger(trig.Key())
	trig.JobID = s.ids.job(trig.JobKey())
	trig.Scheduler = s.cfg.InstanceName
	if trig.Priority == 0 {
		trig.Priority = model.DefaultPriority
	}

	triggerGroupPaused, err := s.pausedGroups.IsTriggerGroupPaused(ctx, trig.Group)
	if err != nil {
		return err
	}
	job, err := findByID[model.Job](ctx, s.cols.jobs, trig.JobID)
	if err != nil {
		return err
	}
	if job == nil {
		return jobstoreerr.JobPersistencef("trigger %s references missing job", trig.Key())
	}
	jobGroupPaused, err := s.pausedGroups.IsJobGroupPaused(ctx, job.Group)
	if err != nil {
		return err
	}
	blocked, err := s.blocks.IsBlocked(ctx, trig.JobID)
	if err != nil {
		return err
	}
	trig.State = initialTriggerState(triggerGroupPaused, jobGroupPaused, blocked)

	if replace {
		return upsertReplace(ctx, s.cols.triggers, trig.ID, trig)
	}
	return insertNew(ctx, s.cols.triggers, trig)
}

// ReplaceTrigger swaps an existing trigger for newTrigger, preserving the
// original's fire-time bookkeeping only when newTrigger leaves it unset.
func (s *Store) ReplaceTrigger(ctx context.Context, key model.TriggerKey, newTrigger model.Trigger) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	id := s.ids.trigger(key)
	existing, err := findByID[model.Trigger](ctx, s.cols.triggers, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	newTrigger.ID = id
	newTrigger.Scheduler = s.cfg.InstanceName
	newTrigger.Version = existing.Version
	if newTrigger.NextFireTime == nil {
		newTrigger.NextFireTime = existing.NextFireTime
		newTrigger.NextFireTimeTicks = existing.NextFireTimeTicks
	}
	if err := upsertReplace(ctx, s.cols.triggers, id, newTrigger); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) RemoveTrigger(ctx context.Context, key model.TriggerKey) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	var removed bool
	err = s.withRetry(ctx, func() error {
		var rerr error
		removed, rerr = s.removeTriggerByID(ctx, s.ids.trigger(key))
		return rerr
	})
	return removed, err
}

func (s *Store) removeTriggerByID(ctx context.Context, id string) (bool, error) {
	trig, err := findByID[model.Trigger](ctx, s.cols.triggers, id)
	if err != nil || trig == nil {
		return false, err
	}
	removed, err := casDelete(ctx, s.cols.triggers, id, trig.Version)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, jobstoreerr.Concurrencyf("trigger %s changed concurrently", id)
	}

	remaining, err := s.cols.triggers.CountDocuments(ctx, bson.M{"jobId": trig.JobID})
	if err != nil {
		return true, jobstoreerr.MapMongoError(err)
	}
	if remaining == 0 {
		job, err := findByID[model.Job](ctx, s.cols.jobs, trig.JobID)
		if err == nil && job != nil && !job.Durable {
			if _, err := deleteByID(ctx, s.cols.jobs, job.ID); err != nil {
				return true, err
			}
			if s.signaler != nil {
				s.signaler.NotifySchedulerListenersJobDeleted(ctx, job.Key())
			}
		}
	}
	return true, nil
}

func (s *Store) RemoveTriggers(ctx context.Context, keys []model.TriggerKey) (bool, error) {
	allRemoved := true
	for _, k := range keys {
		removed, err := s.RemoveTrigger(ctx, k)
		if err != nil {
			return false, err
		}
		allRemoved = allRemoved && removed
	}
	return allRemoved, nil
}

func (s *Store) RetrieveTrigger(ctx context.Context, key model.TriggerKey) (*model.Trigger, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return findByID[model.Trigger](ctx, s.cols.triggers, s.ids.trigger(key))
}

func (s *Store) CheckTriggerExists(ctx context.Context, key model.TriggerKey) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	return existsByID(ctx, s.cols.triggers, s.ids.trigger(key))
}

func (s *Store) GetNumberOfTriggers(ctx context.Context) (int64, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n, err := s.cols.triggers.CountDocuments(ctx, bson.M{"scheduler": s.cfg.InstanceName})
	if err != nil {
		return 0, jobstoreerr.MapMongoError(err)
	}
	return n, nil
}

func (s *Store) GetTriggerKeys(ctx context.Context, m model.GroupMatcher) ([]model.TriggerKey, error) {
	ctx, done := s.bulkCtx(ctx)
	defer done()
	return groupKeys[model.Trigger](ctx, s.logger, s.cols.triggers, s.cfg.InstanceName, m, func(t model.Trigger) (string, model.TriggerKey) {
		return t.Group, t.Key()
	})
}

func (s *Store) GetTriggerGroupNames(ctx context.Context) ([]string, error) {
	ctx, done := s.bulkCtx(ctx)
	defer done()
	return distinctGroups(ctx, s.cols.triggers, s.cfg.InstanceName)
}

func (s *Store) GetTriggersForJob(ctx context.Context, key model.JobKey) ([]model.Trigger, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	jobID := s.ids.job(key)
	cur, err := s.cols.triggers.Find(ctx, bson.M{"jobId": jobID})
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
	return out, cur.Err()
}

func (s *Store) GetTriggerState(ctx context.Context, key model.TriggerKey) (model.ExternalTriggerState, error) {
	t, err := s.RetrieveTrigger(ctx, key)
	if err != nil {
		return model.ExternalStateNone, err
	}
	if t == nil {
		return model.ExternalStateNone, nil
	}
	return t.State.Project(), nil
}

// ResetTriggerFromErrorState clears an Error trigger back to Waiting,
// honoring pause/block state exactly as StoreTrigger does.
func (s *Store) ResetTriggerFromErrorState(ctx context.Context, key model.TriggerKey) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.withRetry(ctx, func() error {
		t, err := s.RetrieveTrigger(ctx, key)
		if err != nil {
			return err
		}
		if t == nil || t.State != model.TriggerStateError {
			return nil
		}
		triggerGroupPaused, err := s.pausedGroups.IsTriggerGroupPaused(ctx, t.Group)
		if err != nil {
			return err
		}
		blocked, err := s.blocks.IsBlocked(ctx, t.JobID)
		if err != nil {
			return err
		}
		jobGroupPaused, err := s.pausedGroups.IsJobGroupPaused(ctx, t.JobGroup)
		if err != nil {
			return err
		}
		newState := initialTriggerState(triggerGroupPaused, jobGroupPaused, blocked)
		ok, err := casUpdate(ctx, s.cols.triggers, t.ID, t.Version, bson.M{"$set": bson.M{"state": newState}})
		if err != nil {
			return err
		}
		if !ok {
			return jobstoreerr.Concurrencyf("trigger %s changed concurrently", key)
		}
		return nil
	})
}

// --- Calendars -----------------------------------------------------------

func (s *Store) StoreCalendar(ctx context.Context, cal model.Calendar, replace bool) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	cal.ID = s.ids.calendar(cal.Name)
	cal.Scheduler = s.cfg.InstanceName
	if replace {
		return upsertReplace(ctx, s.cols.calendars, cal.ID, cal)
	}
	return insertNew(ctx, s.cols.calendars, cal)
}

func (s *Store) RemoveCalendar(ctx context.Context, name string) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	id := s.ids.calendar(name)
	inUse, err := s.cols.triggers.CountDocuments(ctx, bson.M{"calendarName": name})
	if err != nil {
		return false, jobstoreerr.MapMongoError(err)
	}
	if inUse > 0 {
		return false, jobstoreerr.JobPersistencef("calendar %s is referenced by %d trigger(s)", name, inUse)
	}
	return deleteByID(ctx, s.cols.calendars, id)
}

func (s *Store) RetrieveCalendar(ctx context.Context, name string) (*model.Calendar, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	return findByID[model.Calendar](ctx, s.cols.calendars, s.ids.calendar(name))
}

func (s *Store) CalendarExists(ctx context.Context, name string) (bool, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return false, err
	}
	defer done()
	return existsByID(ctx, s.cols.calendars, s.ids.calendar(name))
}

func (s *Store) GetNumberOfCalendars(ctx context.Context) (int64, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return 0, err
	}
	defer done()
	n, err := s.cols.calendars.CountDocuments(ctx, bson.M{"scheduler": s.cfg.InstanceName})
	if err != nil {
		return 0, jobstoreerr.MapMongoError(err)
	}
	return n, nil
}

func (s *Store) GetCalendarNames(ctx context.Context) ([]string, error) {
	ctx, done := s.bulkCtx(ctx)
	defer done()
	raw, err := s.cols.calendars.Distinct(ctx, "name", bson.M{"scheduler": s.cfg.InstanceName})
	if err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

// --- Pause / resume --------------------------------------------------------

func (s *Store) PauseTrigger(ctx context.Context, key model.TriggerKey) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.withRetry(ctx, func() error {
		t, err := s.RetrieveTrigger(ctx, key)
		if err != nil || t == nil {
			return err
		}
		newState := pauseTransition(t.State)
		if newState == t.State {
			return nil
		}
		ok, err := casUpdate(ctx, s.cols.triggers, t.ID, t.Version, bson.M{"$set": bson.M{"state": newState}})
		if err != nil {
			return err
		}
		if !ok {
			return jobstoreerr.Concurrencyf("trigger %s changed concurrently", key)
		}
		return nil
	})
}

func (s *Store) ResumeTrigger(ctx context.Context, key model.TriggerKey) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.withRetry(ctx, func() error {
		t, err := s.RetrieveTrigger(ctx, key)
		if err != nil || t == nil {
			return err
		}
		newState := resumeTransition(t.State)
		if newState == t.State {
			return nil
		}
		ok, err := casUpdate(ctx, s.cols.triggers, t.ID, t.Version, bson.M{"$set": bson.M{"state": newState}})
		if err != nil {
			return err
		}
		if !ok {
			return jobstoreerr.Concurrencyf("trigger %s changed concurrently", key)
		}
		return nil
	})
}

func (s *Store) PauseTriggers(ctx context.Context, m model.GroupMatcher) ([]string, error) {
	keys, err := s.GetTriggerKeys(ctx, m)
	if err != nil {
		return nil, err
	}
	groups := map[string]struct{}{}
	for _, k := range keys {
		if err := s.PauseTrigger(ctx, k); err != nil {
			return nil, err
		}
		groups[k.Group] = struct{}{}
	}
	for g := range groups {
		if err := s.pausedGroups.PauseTriggerGroup(ctx, g); err != nil {
			return nil, err
		}
	}
	return groupNames(groups), nil
}

func (s *Store) ResumeTriggers(ctx context.Context, m model.GroupMatcher) ([]string, error) {
	keys, err := s.GetTriggerKeys(ctx, m)
	if err != nil {
		return nil, err
	}
	groups := map[string]struct{}{}
	for _, k := range keys {
		if err := s.ResumeTrigger(ctx, k); err != nil {
			return nil, err
		}
		groups[k.Group] = struct{}{}
	}
	for g := range groups {
		if err := s.pausedGroups.ResumeTriggerGroup(ctx, g); err != nil {
			return nil, err
		}
	}
	return groupNames(groups), nil
}

func (s *Store) PauseJob(ctx context.Context, key model.JobKey) error {
	triggers, err := s.GetTriggersForJob(ctx, key)
	if err != nil {
		return err
	}
	for _, t := range triggers {
		if err := s.PauseTrigger(ctx, t.Key()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ResumeJob(ctx context.Context, key model.JobKey) error {
	triggers, err := s.GetTriggersForJob(ctx, key)
	if err != nil {
		return err
	}
	for _, t := range triggers {
		if err := s.ResumeTrigger(ctx, t.Key()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) PauseJobs(ctx context.Context, m model.GroupMatcher) ([]string, error) {
	keys, err := s.GetJobKeys(ctx, m)
	if err != nil {
		return nil, err
	}
	groups := map[string]struct{}{}
	for _, k := range keys {
		if err := s.PauseJob(ctx, k); err != nil {
			return nil, err
		}
		groups[k.Group] = struct{}{}
	}
	for g := range groups {
		if err := s.pausedGroups.PauseJobGroup(ctx, g); err != nil {
			return nil, err
		}
	}
	return groupNames(groups), nil
}

func (s *Store) ResumeJobs(ctx context.Context, m model.GroupMatcher) ([]string, error) {
	keys, err := s.GetJobKeys(ctx, m)
	if err != nil {
		return nil, err
	}
	groups := map[string]struct{}{}
	for _, k := range keys {
		if err := s.ResumeJob(ctx, k); err != nil {
			return nil, err
		}
		groups[k.Group] = struct{}{}
	}
	for g := range groups {
		if err := s.pausedGroups.ResumeJobGroup(ctx, g); err != nil {
			return nil, err
		}
	}
	return groupNames(groups), nil
}

func (s *Store) PauseAll(ctx context.Context) error {
	groups, err := s.GetTriggerGroupNames(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := s.PauseTriggers(ctx, model.GroupEquals(g)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ResumeAll(ctx context.Context) error {
	groups, err := s.pausedGroups.ListPausedTriggerGroups(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if _, err := s.ResumeTriggers(ctx, model.GroupEquals(g)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) IsJobGroupPaused(ctx context.Context, group string) (bool, error) {
	return s.pausedGroups.IsJobGroupPaused(ctx, group)
}

func (s *Store) IsTriggerGroupPaused(ctx context.Context, group string) (bool, error) {
	return s.pausedGroups.IsTriggerGroupPaused(ctx, group)
}

func (s *Store) GetPausedTriggerGroups(ctx context.Context) ([]string, error) {
	return s.pausedGroups.ListPausedTriggerGroups(ctx)
}

// --- Acquisition, fire, complete ------------------------------------------

// AcquireNextTriggers selects up to maxCount Waiting triggers due to fire
// no later than noLaterThan+timeWindow (spec.md §4.6, §6).
func (s *Store) AcquireNextTriggers(ctx context.Context, noLaterThan time.Time, maxCount int, timeWindow time.Duration) ([]model.Trigger, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()
	reconciled, err := s.misfire.Run(ctx, time.Now(), s.signaler)
	if err != nil {
		return nil, err
	}
	if reconciled > 0 {
		s.logger.Info("misfire reconciliation ran before acquisition", "reconciled", reconciled)
	}
	return s.acquire.AcquireNext(ctx, noLaterThan, maxCount, timeWindow)
}

func (s *Store) ReleaseAcquiredTrigger(ctx context.Context, key model.TriggerKey) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.withRetry(ctx, func() error {
		t, err := s.RetrieveTrigger(ctx, key)
		if err != nil || t == nil {
			return err
		}
		ok, err := casUpdate(ctx, s.cols.triggers, t.ID, t.Version, bson.M{"$set": bson.M{
			"state":          model.TriggerStateWaiting,
			"fireInstanceId": "",
		}})
		if err != nil {
			return err
		}
		if !ok {
			return jobstoreerr.Concurrencyf("trigger %s changed concurrently", key)
		}
		return nil
	})
}

// TriggersFired fires every given trigger (already Acquired), returning
// exactly one FireResult per input trigger in the same order — a "not
// acquired"/"job blocked"/"job deleted" sentinel or a fired bundle, never a
// silent drop (spec.md §4.7). Each trigger's fire (including its calendar
// load) runs concurrently, since they touch disjoint documents and share
// no mutable state. A result list shorter than the input is a store-level
// exception (spec.md §7): the runtime must be able to treat it as a batch
// failure rather than silently accepting a partial fire.
func (s *Store) TriggersFired(ctx context.Context, triggers []model.Trigger) ([]model.FireResult, error) {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	now := time.Now()
	results := make([]model.FireResult, len(triggers))

	limit := s.cfg.ThreadPoolSize
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, t := range triggers {
		i, t := i, t
		g.Go(func() error {
			return s.withRetry(gctx, func() error {
				fresh, ferr := findByID[model.Trigger](gctx, s.cols.triggers, t.ID)
				if ferr != nil {
					return ferr
				}
				if fresh == nil || fresh.State != model.TriggerStateAcquired {
					results[i] = model.FireResult{Outcome: model.FireOutcomeNotAcquired}
					return nil
				}
				outcome, b, ferr := s.fire.Fire(gctx, *fresh, now)
				if ferr != nil {
					return ferr
				}
				results[i] = model.FireResult{Outcome: outcome, Bundle: b}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(results) != len(triggers) {
		return nil, jobstoreerr.JobPersistencef("fired %d result(s) for %d requested trigger(s)", len(results), len(triggers))
	}
	return results, nil
}

// TriggeredJobComplete applies the runtime's completion instruction
// (spec.md §4.7). jobDetail is the runtime's in-memory view of the job as
// it stood after execution; when the stored job has
// PersistJobDataAfterExecution set, jobDetail.Data overwrites what's stored.
func (s *Store) TriggeredJobComplete(ctx context.Context, trig model.Trigger, jobDetail model.Job, instruction model.CompletionInstruction) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	return s.withRetry(ctx, func() error {
		fresh, err := findByID[model.Trigger](ctx, s.cols.triggers, trig.ID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return nil
		}
		signal, err := s.fire.Complete(ctx, *fresh, trig, jobDetail, instruction)
		if err != nil {
			return err
		}
		if signal && s.signaler != nil {
			s.signaler.SignalSchedulingChange(ctx, nil)
		}
		return nil
	})
}

// ClearAllSchedulingData removes every job, trigger, calendar and pause
// marker belonging to this scheduler instance (spec.md §6). Used by test
// harnesses and full resets; not part of the steady-state hot path.
func (s *Store) ClearAllSchedulingData(ctx context.Context) error {
	ctx, done, err := s.waitingCtx(ctx)
	if err != nil {
		return err
	}
	defer done()
	filter := bson.M{"scheduler": s.cfg.InstanceName}
	for _, coll := range []*mongo.Collection{
		s.cols.jobs, s.cols.triggers, s.cols.calendars,
		s.cols.pausedTriggerGroups, s.cols.pausedJobGroups, s.cols.blockedJobs,
	} {
		if _, err := coll.DeleteMany(ctx, filter); err != nil {
			return jobstoreerr.MapMongoError(err)
		}
	}
	return s.blocks.ReleaseAll(ctx)
}

func groupNames(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for g := range m {
		out = append(out, g)
	}
	return out
}
