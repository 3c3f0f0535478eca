// Package metafield is the schema and validation engine for store-scoped
// custom fields on products, customers and orders.
//
// A Definition declares the type and rules for a namespace/key pair on one
// owner resource. A Metafield holds a value for one owner object. The two are
// linked loosely by DefinitionKey: a metafield may exist without a definition,
// and removing a definition only removes its metafields when asked to.
//
// # Services
//
// DefinitionService creates, updates and removes definitions. Rule sets are
// checked against the definition type by RuleSetValidator; the per-store
// definition ceiling comes from pkg/limits.
//
// MetafieldService validates and persists values. Upsert works on a single
// owner and reuses an existing metafield with the same key. Sets spans
// owners and isolates failures per item:
//
//	res, err := fields.Sets(ctx, storeID, items)
//	if err != nil {
//		return err // permission or infrastructure failure
//	}
//	for _, e := range res.Errors {
//		// e.Fields is e.g. ["metafields", "3", "value"]
//	}
//
// # Validation
//
// Provider dispatches on value type. Built-in types are boolean, date_time,
// number_decimal, single_line_text_field and <resource>_reference. Messages
// are complete sentences ready for display; structured errors use the codes
// of pkg/validator.
//
// # Cascades
//
// DefinitionService.Remove publishes DefinitionDeleted after its transaction
// commits. With QueuePublisher the event becomes a queue task handled by
// NewCascadeHandler, which deletes matching metafields when Cascade is set.
//
// # Storage
//
// MemoryStorage backs tests; package pgstore provides the PostgreSQL store.
package metafield
