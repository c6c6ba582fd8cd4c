// Package storage implements state backends for user-scoped dashboard state.
//
// Every backend stores opaque values under interfaces.StateKey keys. The
// dashboard uses them to persist configured (custom) chains and the list of
// recently used chains per user.
//
// # Backend Types
//
//   - MemoryBackend: process-local map, the default for development
//   - FileBackend: one file per key below a base directory
//   - S3Backend: one object per key in an S3 (or compatible) bucket
//   - VaultBackend: one KV v2 secret per key in HashiCorp Vault
//   - MultiStateBackend: writes to every available backend and reads from the
//     first backend holding the key
//
// # Location URIs
//
//	memory://
//	file:///var/lib/dashboard/state
//	s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=http://minio:9000
//	vault://vault.example.com:8200/secret/dashboard?tls=true
//
// Use StateBackendFactory to construct backends from these URIs.
package storage
