package flowork

import (
	"log/slog"
	"regexp"
	"strings"
)

// RoutingMarker is the literal the model is instructed to emit before
// its chosen routing key.
const RoutingMarker = "ROUTING_KEY:"

// Patterns for locating the routing marker. The marker is only honored
// at the very end of the text, after trailing whitespace is trimmed.
var (
	keyPattern    = regexp.MustCompile(`ROUTING_KEY:\s*(\w+)$`)
	markerPattern = regexp.MustCompile(`\s*ROUTING_KEY:\s*\w+\s*$`)
)

// RoutingTable maps routing keys to targets for one node.
// Targets are node IDs or End. Tables are built by the compiler and
// read-only afterwards; they are stored per node ID, never as closures.
type RoutingTable map[string]string

// Target returns the target for a key and whether the key exists.
func (t RoutingTable) Target(key string) (string, bool) {
	target, ok := t[key]
	return target, ok
}

// Router extracts routing keys from model output and resolves them
// against routing tables. Safe for concurrent use.
type Router struct {
	logger *slog.Logger
}

// NewRouter creates a router. A nil logger defaults to slog.Default().
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// ExtractKey returns the routing key from a trailing marker in text,
// or DefaultKey when no marker is present. Matching is case-sensitive
// on the marker; the key is a word token (letters, digits, underscore).
func (r *Router) ExtractKey(text string) string {
	m := keyPattern.FindStringSubmatch(strings.TrimRight(text, " \t\r\n"))
	if m == nil {
		return DefaultKey
	}
	return m[1]
}

// Resolve picks the routing key to follow from a node. The result is
// always a key present in table when the table was built by the
// compiler, since compilation guarantees DefaultKey and ErrorKey
// entries; the caller looks the target up from the returned key.
func (r *Router) Resolve(state *ExecutionState, table RoutingTable) string {
	last := ""
	if state != nil {
		last = state.LastOutput
	}

	if last == "" {
		if _, ok := table[DefaultKey]; ok {
			return DefaultKey
		}
		if _, ok := table[ErrorKey]; ok {
			r.logger.Warn("routing table missing default key, falling back to error route")
			return ErrorKey
		}
		// Should not occur on a compiled graph.
		r.logger.Warn("routing table missing default and error keys")
		return DefaultKey
	}

	key := r.ExtractKey(last)
	if _, ok := table[key]; ok {
		r.logger.Debug("routing decision", slog.String("key", key), slog.String("target", table[key]))
		return key
	}

	r.logger.Warn("extracted key not in routing table, using fallback",
		slog.String("key", key))
	if _, ok := table[DefaultKey]; ok {
		return DefaultKey
	}
	if _, ok := table[ErrorKey]; ok {
		return ErrorKey
	}
	r.logger.Warn("routing table missing default and error keys")
	return DefaultKey
}

// StripMarker removes a trailing routing marker (and surrounding
// whitespace) from text. Text without a marker is returned trimmed,
// so stripping is idempotent.
func (r *Router) StripMarker(text string) string {
	return strings.TrimSpace(markerPattern.ReplaceAllString(text, ""))
}
