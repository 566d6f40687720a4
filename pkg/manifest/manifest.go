package manifest

// File flag bits. ReadOnly/Compressed/Executable are views over Flags, not
// independent fields, so the two can never disagree.
const (
	flagReadOnly   = 0x01
	flagCompressed = 0x02
	flagExecutable = 0x04
)

// Manifest is the root of the decoded entity graph. It is constructed once
// by decoding bytes from the content system or a local cache file and never
// mutated afterwards.
type Manifest struct {
	// Version is the manifest format revision from the header.
	Version uint32

	// HeaderSize is the byte length of the binary header. Meaningful only
	// for the binary encoding; zero for manifests decoded from JSON.
	HeaderSize uint32

	// IsCompressed records whether the binary body following the header was
	// stored zlib-compressed.
	IsCompressed bool

	Meta             *Meta
	ChunkDataList    *ChunkDataList
	FileManifestList *FileManifestList

	// CustomFields carries opaque key/value pairs. Insertion order is
	// irrelevant; nil when the manifest carries none.
	CustomFields map[string]string
}

// Meta carries build-level metadata. Fields gated by DataVersion or
// FeatureLevel default to their zero values when absent from lower format
// revisions; consumers never need to re-check presence.
type Meta struct {
	DataVersion  uint8
	FeatureLevel uint32
	IsFileData   bool

	AppID        string
	AppName      string
	BuildVersion string
	BuildID      string

	LaunchExe     string
	LaunchCommand string

	PrereqIDs  []string
	PrereqName string
	PrereqPath string
	PrereqArgs string

	UninstallActionPath string
	UninstallActionArgs string
}

// ChunkDataList is the ordered set of chunks the build is composed of.
type ChunkDataList struct {
	Version  uint8
	Count    uint32
	Elements []ChunkInfo
}

// ByGUID returns a lookup map from chunk GUID to the chunk's index in
// Elements. The map is rebuilt on each call; hold on to it when resolving
// many parts.
func (l *ChunkDataList) ByGUID() map[GUID]int {
	m := make(map[GUID]int, len(l.Elements))
	for i := range l.Elements {
		m[l.Elements[i].GUID] = i
	}
	return m
}

// ChunkInfo describes one content-addressed chunk as stored remotely.
type ChunkInfo struct {
	// GUID is the chunk's 128-bit content address.
	GUID GUID

	// Hash is the 64-bit rolling hash used for dedup lookup.
	Hash uint64

	// SHAHash is the 160-bit digest of the chunk payload.
	SHAHash [20]byte

	// GroupNum is the remote storage sharding bucket.
	GroupNum uint32

	// WindowSize is the byte length of the chunk's uncompressed payload.
	WindowSize uint32

	// FileSize is the byte length of the chunk as stored remotely; differs
	// from WindowSize when the chunk is stored compressed.
	FileSize int64
}

// GUIDString returns the canonical hyphenated form of the chunk's GUID.
func (c *ChunkInfo) GUIDString() string { return c.GUID.String() }

// FileManifestList is the ordered set of files the build installs.
type FileManifestList struct {
	Version  uint8
	Count    uint32
	Elements []FileManifest
}

// FileManifest describes one installed file and the chunk slices that
// reconstruct it.
type FileManifest struct {
	// Filename is the install-relative path, separators normalized to '/'.
	Filename string

	// SymlinkTarget is empty when the entry is a regular file.
	SymlinkTarget string

	// Hash is the primary content digest (SHA-1) of the reconstructed file.
	Hash [20]byte

	// HashMD5 and HashSHA256 may be empty depending on the list version.
	HashMD5    []byte
	HashSHA256 []byte

	// Flags is the raw bitfield; use ReadOnly/Compressed/Executable.
	Flags uint8

	// InstallTags scopes the file to install configurations. Empty means
	// "always install".
	InstallTags []string

	// FileSize is the declared total reconstructed size.
	FileSize int64

	// MimeType may be empty.
	MimeType string

	// ChunkParts, ordered by FileOffset, tile the file without gaps.
	ChunkParts []ChunkPart
}

// ReadOnly reports whether the file is installed read-only.
func (f *FileManifest) ReadOnly() bool { return f.Flags&flagReadOnly != 0 }

// Compressed reports whether the file content is stored compressed.
func (f *FileManifest) Compressed() bool { return f.Flags&flagCompressed != 0 }

// Executable reports whether the file is installed with the execute bit.
func (f *FileManifest) Executable() bool { return f.Flags&flagExecutable != 0 }

// ChunkPart is a byte slice of a chunk written at a position in a
// reconstructed file. The GUID references a ChunkInfo in the same
// manifest's chunk list; many files may reference the same chunk.
type ChunkPart struct {
	GUID GUID

	// Offset is the byte offset into the referenced chunk's decompressed
	// payload.
	Offset uint32

	// Size is the byte length taken from the chunk.
	Size uint32

	// FileOffset is the byte offset in the reconstructed file where this
	// slice is written.
	FileOffset int64
}

// GUIDString returns the canonical hyphenated form of the part's GUID.
func (p *ChunkPart) GUIDString() string { return p.GUID.String() }

// DownloadSize returns the total bytes to fetch: the sum of remote chunk
// sizes. Zero when the manifest carries no chunk list.
func (m *Manifest) DownloadSize() int64 {
	if m.ChunkDataList == nil {
		return 0
	}
	var total int64
	for i := range m.ChunkDataList.Elements {
		total += m.ChunkDataList.Elements[i].FileSize
	}
	return total
}

// InstalledSize returns the total bytes on disk after reconstruction: the
// sum of declared file sizes. Zero when the manifest carries no file list.
func (m *Manifest) InstalledSize() int64 {
	if m.FileManifestList == nil {
		return 0
	}
	var total int64
	for i := range m.FileManifestList.Elements {
		total += m.FileManifestList.Elements[i].FileSize
	}
	return total
}
