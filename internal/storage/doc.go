// Package storage provides the persistent backends behind the session
// storage pipeline.
//
// Backends:
//
//   - EncryptedStore: Badger database encrypted at rest with the
//     provisioned encryption key (primary store on native platforms)
//   - SecureFallback: entries written straight into the secure store,
//     used when the encrypted store cannot be initialized
//   - PlainStore: unencrypted bolt database, used for the legacy store
//     and for web origin storage
//
// Backends store values verbatim. Compaction, migration and write
// coordination live in internal/core/service.
package storage
