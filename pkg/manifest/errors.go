package manifest

import (
	"errors"
	"fmt"
)

// Decode errors. All are fatal for the input that produced them: the caller
// decides whether to retry with different bytes (e.g., re-download) or
// abort. Use errors.Is to classify.
var (
	// ErrTruncatedInput indicates fewer bytes than a length prefix demands.
	ErrTruncatedInput = errors.New("manifest: truncated input")

	// ErrInvalidMagic indicates the binary header magic did not match.
	ErrInvalidMagic = errors.New("manifest: invalid magic")

	// ErrUnsupportedVersion indicates a format revision newer than this
	// codec understands.
	ErrUnsupportedVersion = errors.New("manifest: unsupported version")

	// ErrMalformedUTF8 indicates a string field failed UTF-8 validation.
	ErrMalformedUTF8 = errors.New("manifest: malformed utf-8")

	// ErrDecompressionFailed indicates the compressed body could not be
	// inflated. Fatal, not a warning.
	ErrDecompressionFailed = errors.New("manifest: body decompression failed")

	// ErrInvariantViolation indicates the decoded structure violates one of
	// the manifest invariants (counts, chunk references, part coverage).
	ErrInvariantViolation = errors.New("manifest: invariant violation")
)

// truncated returns a TruncatedInput error naming the field being read.
func truncated(what string) error {
	return fmt.Errorf("%w: reading %s", ErrTruncatedInput, what)
}

// invariant returns an InvariantViolation error naming the violated
// invariant and its context.
func invariant(name, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvariantViolation, name, fmt.Sprintf(format, args...))
}
