// Package redis implements a durable-ref backend over Redis, registered
// under the inner-URI scheme "redis".
//
// Values are stored in a Redis hash with two fields: "data" (the raw
// bytes) and "version" (a monotonic counter). AtomicSwap is native: a
// single Lua script performs the version check and the update in one
// round trip, so the core's generic CAS loop (package atomic) is never
// invoked for this backend — Redis's own optimistic-locking primitive
// (EVAL) stands in for it.
package redis
