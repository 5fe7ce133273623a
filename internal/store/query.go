package store

import (
	"context"
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/internal/jobstoreerr"
	"github.com/ravenjobstore/store/internal/model"
)

// groupFilter builds a database-side where-clause predicate for every
// matcher operator except Contains, which has no index-friendly predicate
// and must be evaluated client-side over a stream (spec.md §6, §9 Open
// Question ii). ok is false for Contains.
func groupFilter(field string, m model.GroupMatcher) (bson.M, bool) {
	switch m.Operator {
	case model.MatchEquality:
		return bson.M{field: m.Value}, true
	case model.MatchStartsWith:
		return bson.M{field: primitive.Regex{Pattern: "^" + regexp.QuoteMeta(m.Value), Options: ""}}, true
	case model.MatchEndsWith:
		return bson.M{field: primitive.Regex{Pattern: regexp.QuoteMeta(m.Value) + "$", Options: ""}}, true
	case model.MatchAnything:
		return bson.M{}, true
	default:
		return nil, false
	}
}

// groupKeys streams every document in coll for this scheduler instance and
// extracts a key for each, applying m database-side when possible and
// falling back to a client-side scan for Contains (spec.md §9 Open
// Question ii). logger warns once per call when that fallback is taken,
// since a Contains matcher turns an indexed query into a full collection
// scan.
func groupKeys[T any, K any](ctx context.Context, logger *slog.Logger, coll *mongo.Collection, instanceName string, m model.GroupMatcher, extract func(T) (string, K)) ([]K, error) {
	filter := bson.M{"scheduler": instanceName}
	pushedDown := false
	if pred, ok := groupFilter("group", m); ok {
		for k, v := range pred {
			filter[k] = v
		}
		pushedDown = true
	} else if logger != nil {
		logger.Warn("group matcher requires a client-side scan", "operator", m.Operator, "collection", coll.Name())
	}

	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	defer cur.Close(ctx)

	var out []K
	for cur.Next(ctx) {
		var doc T
		if err := cur.Decode(&doc); err != nil {
			return nil, jobstoreerr.MapMongoError(err)
		}
		group, key := extract(doc)
		if !pushedDown && !m.Matches(group) {
			continue
		}
		out = append(out, key)
	}
	if err := cur.Err(); err != nil {
		return nil, jobstoreerr.MapMongoError(err)
	}
	return out, nil
}

// distinctGroups returns every distinct group name in coll for this
// scheduler instance.
func distinctGroups(ctx context.Context, coll *mongo.Collection, instanceName string) ([]string, error) {
	raw, err := coll.Distinct(ctx, "group", bson.M{"scheduler": instanceName})
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
