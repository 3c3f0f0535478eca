// Package async provides small generic helpers for running computations
// concurrently and waiting for their completion.
//
// Async starts a function in its own goroutine and returns a Future whose
// Await blocks until the result is ready. WaitAll collects several futures in
// order. Map fans a slice out over a bounded number of goroutines and returns
// the results in input order, which is what batch operations need when their
// errors must be reported by the original item index.
//
//	exists, err := async.Map(ctx, items, 8, func(ctx context.Context, i int, it Item) (bool, error) {
//	    return checker.Exists(ctx, it.OwnerResource, it.OwnerID, storeID)
//	})
//
// If the context is cancelled before a computation starts, its Future is
// completed with the context error.
package async
