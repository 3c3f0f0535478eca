package queue

import (
	"fmt"
	"strings"
)

// qualifiedStructName returns "pkg.Type" for v, dropping pointer markers.
func qualifiedStructName(v any) string {
	return strings.TrimLeft(fmt.Sprintf("%T", v), "*")
}
