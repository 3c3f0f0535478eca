package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// StoreID records the tenant store under the key "store_id".
// If id is nil, it returns an empty Attr.
func StoreID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("store_id", id)
}

// DefinitionID records a metafield definition id under the key "definition_id".
func DefinitionID(id int64) slog.Attr {
	return slog.Int64("definition_id", id)
}

// MetafieldID records a metafield id under the key "metafield_id".
func MetafieldID(id int64) slog.Attr {
	return slog.Int64("metafield_id", id)
}

// OwnerResource records the owner resource type under the key "owner_resource".
func OwnerResource(resource string) slog.Attr {
	return slog.String("owner_resource", resource)
}

// TaskID records a queue task identifier under the key "task_id".
// If id is nil, it returns an empty Attr.
func TaskID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("task_id", id)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Count records an affected row or item count under the key "count".
func Count(n int64) slog.Attr {
	return slog.Int64("count", n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
