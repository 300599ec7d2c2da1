// Package securestore provides the device-level credential store.
//
// It plays the role of an OS keychain: small secrets, each stored under a
// fixed id with an access policy. Two implementations are provided:
//
//   - Vault: a file-backed store. The master key is derived from a device
//     passphrase with Argon2id; entries are sealed with an AEAD whose
//     additional data binds them to their id, policy and (for
//     WhenUnlockedThisDeviceOnly) the device id, so an entry copied to
//     another machine does not open.
//   - Memory: an in-process store for ephemeral runs and tests.
//
// Both enforce a small per-entry size limit and refuse access while locked.
package securestore
