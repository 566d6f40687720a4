// Package manifest implements the data model and wire codecs for depot
// manifests: the index describing which content-addressed chunks compose
// which installed files of a game build.
//
// # Formats
//
// Manifests arrive in one of two encodings, distinguished by the first four
// bytes of the payload:
//
//   - Binary: leading magic bytes 0x0C 0xC0 0xBE 0x44 (the little-endian
//     uint32 0x44BEC00C), a fixed 41-byte header, then length-prefixed
//     structural blocks, optionally zlib-compressed.
//   - JSON: anything else is treated as a UTF-8 JSON document.
//
// [Decode] is the single entry point; callers never branch on file
// extension or flags. [EncodeBinary] is the inverse of the binary decoder
// and exists primarily for round-trip verification.
//
// # Invariants
//
// Both decoders converge on one validator that enforces the structural
// invariants (list counts, gap-free chunk-part coverage, chunk reference
// resolution, window bounds). A manifest that violates any invariant is
// rejected with an error wrapping [ErrInvariantViolation], never silently
// repaired.
//
// Decoded manifests are immutable by convention: no consumer mutates a
// Manifest after Decode returns, so instances may be shared freely across
// goroutines without synchronization.
package manifest
