package helpers

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ClampLimit returns def for a missing limit and caps it at max
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
