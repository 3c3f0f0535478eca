// Package validator provides small, composable validation rules that report
// structured, path-aware errors.
//
// A Rule couples a Check function with the ValidationError reported when the
// check fails. Rules are evaluated with Apply or Collect, which aggregate all
// failures, or with First, which stops at the first failing rule.
//
// Every ValidationError carries a stable Code (see the Code* constants), a
// Fields path such as ["metafields", "0", "value"], a human readable Message
// and a translation key with values for localized rendering.
//
// # Usage
//
//	errs := validator.Collect(
//	    validator.Required("name", req.Name),
//	    validator.MaxLen("key", req.Key, 64),
//	)
//	if err := errs.Prefixed("definition").Err(); err != nil {
//	    return err
//	}
//
// Errors can be recovered from wrapped chains with ExtractValidationErrors.
// A collection can be re-rooted with Prefixed, which is how batch operations
// tag item errors with the item index.
//
// All rule constructors are pure and goroutine-safe.
package validator
