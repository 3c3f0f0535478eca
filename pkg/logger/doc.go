// Package logger builds *slog.Logger instances from functional options and
// injects request-scoped values from context.Context into every record.
//
// New wraps a text or JSON handler in LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks before delegating. Attribute helpers
// in attr.go keep key names consistent across services.
//
//	log := logger.New(
//	    logger.WithConfig(cfg),
//	    logger.WithContextExtractors(logger.StoreIDExtractor),
//	)
//	logger.SetAsDefault(log)
//
//	ctx = logger.WithStoreID(ctx, storeID)
//	log.InfoContext(ctx, "definition created", logger.DefinitionID(def.ID))
package logger
