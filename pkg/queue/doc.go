// Package queue is a small persistent task queue with at-least-once delivery.
//
// The package is organised around two components that only meet through
// storage:
//
//   - Enqueuer serializes a payload to JSON and stores it as a Task
//   - Worker claims ready tasks and dispatches them to a Handler by task name
//
// Task names default to the payload's qualified Go type name, so a handler
// built with NewTaskHandler[T] receives every payload of type T.
//
// Two storages implement EnqueuerRepository and WorkerRepository:
// MemoryStorage for tests and single-process use, and PostgresStorage, which
// claims with FOR UPDATE SKIP LOCKED. Apply Migrations before using it.
//
// # Failures
//
// A failing handler makes FailTask reschedule the task with a linear backoff
// until MaxRetries is used up, after which the worker moves it to the dead
// letter queue. Tasks with no registered handler are dead-lettered on first
// sight. A worker that dies mid-task leaves the lock to expire, and the task
// is claimed again. Handlers must therefore be idempotent.
//
//	storage := queue.NewPostgresStorage(pool, cfg.RetryBackoff)
//	enqueuer, _ := queue.NewEnqueuer(storage, queue.WithDefaultQueue("metafields"))
//
//	worker, _ := queue.NewWorker(storage,
//	    queue.WithQueues("metafields"),
//	    queue.WithWorkerConfig(cfg),
//	)
//	worker.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, e DefinitionDeleted) error {
//	    return purge(ctx, e)
//	}))
//
//	g.Go(worker.Run(ctx))
package queue
