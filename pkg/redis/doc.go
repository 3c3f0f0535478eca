// Package redis wraps github.com/redis/go-redis/v9 with env-driven
// connection setup, a health check and a distributed Locker.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	locker := redis.NewLocker(client, cfg)
//	unlock, err := locker.Lock(ctx, "owner:42", 10*time.Second)
//	if err != nil {
//	    return err
//	}
//	defer unlock(context.WithoutCancel(ctx))
//
// Locks use SET NX PX with a random token and are released through a Lua
// script, so a holder can only release its own lock.
package redis
