package metafield_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/queue"
	"github.com/dmitrymomot/metafields/svc/metafield"
)

type cascadeFixture struct {
	fixture
	tasks  *queue.MemoryStorage
	worker *queue.Worker
}

func newCascadeFixture(t *testing.T, workerOpts ...queue.WorkerOption) cascadeFixture {
	t.Helper()

	cfg := metafield.DefaultConfig()
	tasks := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(tasks)
	require.NoError(t, err)

	f := newFixture(t, metafield.WithPublisher(metafield.NewQueuePublisher(enq, cfg)))

	w, err := queue.NewWorker(tasks, append([]queue.WorkerOption{queue.WithQueues(cfg.CascadeQueue)}, workerOpts...)...)
	require.NoError(t, err)
	w.RegisterHandlers(metafield.NewCascadeHandler(f.fields))

	return cascadeFixture{fixture: f, tasks: tasks, worker: w}
}

func (f cascadeFixture) seed(t *testing.T) metafield.Definition {
	t.Helper()
	def := f.addDefinition(t, "color", metafield.TypeSingleLineText)
	for _, owner := range []int64{1, 2, 3} {
		_, err := f.fields.Upsert(context.Background(), f.storeID, owner, metafield.OwnerProduct,
			[]metafield.FieldRequest{field("color", "red"), typedField("other", metafield.TypeBoolean, "true")})
		require.NoError(t, err)
	}
	return def
}

func TestCascade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("removes metafields sharing the key", func(t *testing.T) {
		t.Parallel()
		f := newCascadeFixture(t)
		def := f.seed(t)

		require.NoError(t, f.defs.Remove(ctx, f.storeID, def.ID, true))

		n, err := f.worker.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		count, err := f.fields.CountByDefinitionKey(ctx, f.storeID, def.DefinitionKey())
		require.NoError(t, err)
		assert.Zero(t, count)

		list, err := f.fields.ListByOwner(ctx, f.storeID, metafield.OwnerProduct, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "other", list[0].Key)
	})

	t.Run("keeps metafields without cascade", func(t *testing.T) {
		t.Parallel()
		f := newCascadeFixture(t)
		def := f.seed(t)

		require.NoError(t, f.defs.Remove(ctx, f.storeID, def.ID, false))
		_, err := f.worker.Drain(ctx)
		require.NoError(t, err)

		count, err := f.fields.CountByDefinitionKey(ctx, f.storeID, def.DefinitionKey())
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
		assert.Equal(t, 1, f.tasks.CountByStatus(queue.TaskStatusCompleted))
	})

	t.Run("runs in the background worker", func(t *testing.T) {
		t.Parallel()
		f := newCascadeFixture(t, queue.WithPullInterval(5*time.Millisecond))
		def := f.seed(t)

		require.NoError(t, f.worker.Start(ctx))
		t.Cleanup(func() { _ = f.worker.Stop() })

		require.NoError(t, f.defs.Remove(ctx, f.storeID, def.ID, true))

		require.Eventually(t, func() bool {
			count, err := f.fields.CountByDefinitionKey(ctx, f.storeID, def.DefinitionKey())
			return err == nil && count == 0
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("redelivery is harmless", func(t *testing.T) {
		t.Parallel()
		f := newCascadeFixture(t)
		def := f.seed(t)
		require.NoError(t, f.defs.Remove(ctx, f.storeID, def.ID, true))
		_, err := f.worker.Drain(ctx)
		require.NoError(t, err)

		payload, err := json.Marshal(metafield.DefinitionDeleted{
			ID:            def.ID,
			StoreID:       f.storeID,
			Namespace:     def.Namespace,
			Key:           def.Key,
			OwnerResource: def.OwnerResource,
			Cascade:       true,
		})
		require.NoError(t, err)
		assert.NoError(t, metafield.NewCascadeHandler(f.fields).Handle(ctx, payload))
	})
}

func TestQueuePublisher_TaskName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := metafield.DefaultConfig()
	tasks := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(tasks)
	require.NoError(t, err)

	event := metafield.DefinitionDeleted{ID: 7, StoreID: uuid.New(), Namespace: "custom", Key: "color", OwnerResource: metafield.OwnerProduct, Cascade: true}
	require.NoError(t, metafield.NewQueuePublisher(enq, cfg).PublishDefinitionDeleted(ctx, event))

	task, err := tasks.ClaimTask(ctx, uuid.New(), []string{cfg.CascadeQueue}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, metafield.CascadeTaskName, task.TaskName)
	assert.Equal(t, queue.PriorityHigh, task.Priority)
	assert.Equal(t, cfg.CascadeMaxRetries, task.MaxRetries)
	assert.Equal(t, metafield.CascadeTaskName, metafield.NewCascadeHandler(metafield.NewMetafieldService(metafield.NewMemoryStorage())).Name())
}
