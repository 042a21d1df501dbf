package rediskey

import "fmt"

// Key prefixes shared across services.
const (
	SequencePrefix = "seq"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildDailySequenceKey returns "seq:{prefix}:{scope}:{yymmdd}" for the
// per-day counters backing human-readable codes.
func BuildDailySequenceKey(prefix, scope, day string) string {
	return NamespaceKey(SequencePrefix, fmt.Sprintf("%s:%s:%s", prefix, scope, day))
}
