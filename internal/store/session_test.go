package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ravenjobstore/store/internal/testutil"
)

// TestSessionHelperOpenIsPassthrough checks the non-waiting flavor doesn't
// open any driver session: its context is the one handed in, and Close is
// a no-op.
func TestSessionHelperOpenIsPassthrough(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		h := newSessionHelper(client, &collections{}, 0)
		ctx := context.Background()
		sess, err := h.Open(ctx)
		require.NoError(t, err)
		assert.Equal(t, ctx, sess.Context())
		sess.Close()
	})
}

// TestSessionHelperOpenWaitingBindsCausalSession checks the waiting flavor
// actually opens a causally-consistent driver session and that its
// context carries it (spec.md §4.2): a query made through that context
// must be able to see writes made through the same session.
func TestSessionHelperOpenWaitingBindsCausalSession(t *testing.T) {
	testutil.WithAutoDB(t, func(client *mongo.Client, dbName string) {
		coll := client.Database(dbName).Collection("session_probe")
		h := newSessionHelper(client, &collections{}, 15)

		sess, err := h.OpenWaiting(context.Background())
		require.NoError(t, err)
		defer sess.Close()

		ctx := sess.Context()
		_, err = coll.InsertOne(ctx, map[string]any{"_id": "probe-1", "value": 1})
		require.NoError(t, err)

		n, err := coll.CountDocuments(ctx, map[string]any{"_id": "probe-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
