// Package cache persists fully loaded documents in a local SQLite database
// so a later session can render without any network call before first paint.
//
// Records are upserted by document id once a load completes and read through
// at session start. A record that fails to parse or whose layout checksum
// does not match is reported as corrupt; callers treat that as a cache miss
// and fall through to the network path.
package cache
