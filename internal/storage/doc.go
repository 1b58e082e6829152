/*
Package storage provides the durable string key-value store that workspace
and tab state is mirrored into.

The Store interface mirrors what a browser's localStorage offers: get, set,
remove, and enumeration of every existing key (used for prefix-scan restore).

Implementations:
  - MemoryStore: process-local, used by tests
  - SQLiteStore: kv_store table in the gqlws database, survives restarts

Values are opaque strings; the envelope format ({"data": ...}) belongs to the
state package.
*/
package storage
