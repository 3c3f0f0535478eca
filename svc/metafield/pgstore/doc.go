// Package pgstore persists metafield definitions and values in PostgreSQL.
//
// Apply Migrations with pg.Migrate before use. Natural key uniqueness is
// enforced by unique indexes; conflicts surface as metafield.ErrDefinitionTaken
// and metafield.ErrMetafieldTaken.
//
//	pool, _ := pg.Connect(ctx, cfg)
//	_ = pg.Migrate(ctx, pool, pgstore.Migrations, cfg, logger)
//	store := pgstore.New(pool)
//	owners := pgstore.NewOwnerChecker(pool)
//	fields := metafield.NewMetafieldService(store, metafield.WithOwnerChecker(owners))
package pgstore
