// Package pebblestore wraps a Pebble database for small keyed records such
// as per-log metadata. It adds a sync policy, prefix scans, a read-only mode
// for inspection tools, and an optional metrics hook.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: "./meta"})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("logs/abc"), payload)
//	v, err := db.Get([]byte("logs/abc"))
//	if errors.Is(err, pebblestore.ErrNotFound) { /* absent */ }
//
//	_ = db.Scan([]byte("logs/"), func(k, v []byte) error { return nil })
package pebblestore
