// Package db holds the storage primitives shared by the Redis store and its consumers.
// Consumers declare the narrow interfaces they need next to their own code.
package db

// HashSetItem holds a single key+fields pair for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}
