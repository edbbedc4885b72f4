// Package session provides per-request typed access to session fields held in a shared
// hash-structured store.
//
// # Keys
//
// A session record is addressed by a key derived from the subject id and the presented
// token ([DeriveKey]). The key binds the record to one issued token: re-issuing a token
// for the same subject addresses a fresh record.
//
// # Backends
//
// [Session] talks to storage through the small [Backend] capability interface. Two
// backends ship with the package: [RedisBackend] (HGET/HSET over a pooled go-redis client)
// and [SQLiteBackend] (one row per field in a local SQLite database).
//
// # What this package must NOT do
//
//   - Verify tokens or make authentication decisions (the Engine does that).
//   - Expire, delete or list session records. TTL is a store-configuration concern.
//   - Retry failed store operations. Retry policy belongs to the caller.
package session
