package manifest

import "encoding/binary"

// IsBinary reports whether data starts with the binary manifest magic.
func IsBinary(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == binaryMagic
}

// Decode parses a manifest from either wire format, routing on the leading
// magic: payloads starting with the binary magic take the binary path,
// everything else is treated as JSON. Decoding is a pure function of the
// input bytes; equal inputs yield equal manifests.
func Decode(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, truncated("manifest")
	}
	if IsBinary(data) {
		return decodeBinary(data)
	}
	return decodeJSON(data)
}
