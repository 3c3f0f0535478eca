// Package pg bootstraps PostgreSQL access over pgx/v5.
//
// Connect opens a *pgxpool.Pool from an env-driven Config, retrying with
// linear backoff. Migrate applies goose migrations from an fs.FS so services
// can ship their schema embedded in the binary. WithTx wraps a function in a
// transaction, and DBTX lets repositories run the same queries against a pool
// or a transaction.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, cfg, log); err != nil {
//	    return err
//	}
//
// IsDuplicateKeyError and IsNotFoundError classify pgx errors so callers can
// map them to domain errors.
package pg
