package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// The JSON encoding mirrors the logical model one-to-one. Binary transport
// details (header size, body compression) have no JSON representation; a
// manifest decoded from JSON reports zero/false for them.
//
// GUIDs appear as canonical hyphenated hex strings. A chunk or part may
// additionally carry "guidStr"; when present it must agree with "guid", a
// mismatch is an invariant violation, not a preference for either field.
// The 64-bit rolling hash is carried as a JSON number and parsed without
// going through float64.

type jsonManifest struct {
	Version          uint32            `json:"version"`
	Meta             *jsonMeta         `json:"meta,omitempty"`
	ChunkDataList    *jsonChunkList    `json:"chunkDataList,omitempty"`
	FileManifestList *jsonFileList     `json:"fileManifestList,omitempty"`
	CustomFields     map[string]string `json:"customFields,omitempty"`
}

type jsonMeta struct {
	DataVersion  uint8  `json:"dataVersion"`
	FeatureLevel uint32 `json:"featureLevel"`
	IsFileData   bool   `json:"isFileData,omitempty"`

	AppID        string `json:"appId,omitempty"`
	AppName      string `json:"appName,omitempty"`
	BuildVersion string `json:"buildVersion,omitempty"`
	BuildID      string `json:"buildId,omitempty"`

	LaunchExe     string `json:"launchExe,omitempty"`
	LaunchCommand string `json:"launchCommand,omitempty"`

	PrereqIDs  []string `json:"prereqIds,omitempty"`
	PrereqName string   `json:"prereqName,omitempty"`
	PrereqPath string   `json:"prereqPath,omitempty"`
	PrereqArgs string   `json:"prereqArgs,omitempty"`

	UninstallActionPath string `json:"uninstallActionPath,omitempty"`
	UninstallActionArgs string `json:"uninstallActionArgs,omitempty"`
}

type jsonChunkList struct {
	Version uint8 `json:"version"`

	// Count is the declared element count; absent defaults to the length
	// of Elements. A present count disagreeing with the element list is
	// rejected by the validator.
	Count *uint32 `json:"count,omitempty"`

	Elements []jsonChunk `json:"elements"`
}

type jsonChunk struct {
	GUID       string      `json:"guid"`
	GUIDStr    string      `json:"guidStr,omitempty"`
	Hash       json.Number `json:"hash,omitempty"`
	SHAHash    string      `json:"shaHash,omitempty"`
	GroupNum   uint32      `json:"groupNum"`
	WindowSize uint32      `json:"windowSize"`
	FileSize   int64       `json:"fileSize"`
}

type jsonFileList struct {
	Version  uint8      `json:"version"`
	Count    *uint32    `json:"count,omitempty"`
	Elements []jsonFile `json:"elements"`
}

type jsonFile struct {
	Filename      string          `json:"filename"`
	SymlinkTarget string          `json:"symlinkTarget,omitempty"`
	Hash          string          `json:"hash,omitempty"`
	HashMD5       string          `json:"hashMd5,omitempty"`
	HashSHA256    string          `json:"hashSha256,omitempty"`
	Flags         uint8           `json:"flags,omitempty"`
	InstallTags   []string        `json:"installTags,omitempty"`
	FileSize      int64           `json:"fileSize"`
	MimeType      string          `json:"mimeType,omitempty"`
	ChunkParts    []jsonChunkPart `json:"chunkParts"`
}

type jsonChunkPart struct {
	GUID       string `json:"guid"`
	GUIDStr    string `json:"guidStr,omitempty"`
	Offset     uint32 `json:"offset"`
	Size       uint32 `json:"size"`
	FileOffset int64  `json:"fileOffset"`
}

// =============================================================================
// Decoding
// =============================================================================

func decodeJSON(data []byte) (*Manifest, error) {
	var jm jsonManifest
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, fmt.Errorf("manifest: parsing json: %w", err)
	}

	m := &Manifest{Version: jm.Version}

	if jm.Meta != nil {
		m.Meta = &Meta{
			DataVersion:  jm.Meta.DataVersion,
			FeatureLevel: jm.Meta.FeatureLevel,
			IsFileData:   jm.Meta.IsFileData,

			AppID:        jm.Meta.AppID,
			AppName:      jm.Meta.AppName,
			BuildVersion: jm.Meta.BuildVersion,
			BuildID:      jm.Meta.BuildID,

			LaunchExe:     jm.Meta.LaunchExe,
			LaunchCommand: jm.Meta.LaunchCommand,

			PrereqIDs:  jm.Meta.PrereqIDs,
			PrereqName: jm.Meta.PrereqName,
			PrereqPath: jm.Meta.PrereqPath,
			PrereqArgs: jm.Meta.PrereqArgs,

			UninstallActionPath: jm.Meta.UninstallActionPath,
			UninstallActionArgs: jm.Meta.UninstallActionArgs,
		}
	}

	if jm.ChunkDataList != nil {
		l := &ChunkDataList{
			Version: jm.ChunkDataList.Version,
			Count:   uint32(len(jm.ChunkDataList.Elements)),
		}
		if jm.ChunkDataList.Count != nil {
			l.Count = *jm.ChunkDataList.Count
		}
		if len(jm.ChunkDataList.Elements) > 0 {
			l.Elements = make([]ChunkInfo, len(jm.ChunkDataList.Elements))
		}
		for i := range jm.ChunkDataList.Elements {
			jc := &jm.ChunkDataList.Elements[i]

			guid, err := parseGUIDForms(jc.GUID, jc.GUIDStr, "chunk")
			if err != nil {
				return nil, err
			}
			hash, err := parseHash(jc.Hash, guid)
			if err != nil {
				return nil, err
			}
			var sha [20]byte
			if jc.SHAHash != "" {
				raw, err := parseDigest(jc.SHAHash, 20, "shaHash")
				if err != nil {
					return nil, fmt.Errorf("chunk %s: %w", guid, err)
				}
				copy(sha[:], raw)
			}

			l.Elements[i] = ChunkInfo{
				GUID:       guid,
				Hash:       hash,
				SHAHash:    sha,
				GroupNum:   jc.GroupNum,
				WindowSize: jc.WindowSize,
				FileSize:   jc.FileSize,
			}
		}
		m.ChunkDataList = l
	}

	if jm.FileManifestList != nil {
		l := &FileManifestList{
			Version: jm.FileManifestList.Version,
			Count:   uint32(len(jm.FileManifestList.Elements)),
		}
		if jm.FileManifestList.Count != nil {
			l.Count = *jm.FileManifestList.Count
		}
		if len(jm.FileManifestList.Elements) > 0 {
			l.Elements = make([]FileManifest, len(jm.FileManifestList.Elements))
		}
		for i := range jm.FileManifestList.Elements {
			f, err := decodeJSONFile(&jm.FileManifestList.Elements[i])
			if err != nil {
				return nil, err
			}
			l.Elements[i] = *f
		}
		m.FileManifestList = l
	}

	if len(jm.CustomFields) > 0 {
		m.CustomFields = jm.CustomFields
	}

	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeJSONFile(jf *jsonFile) (*FileManifest, error) {
	f := &FileManifest{
		Filename:      normalizePath(jf.Filename),
		SymlinkTarget: jf.SymlinkTarget,
		Flags:         jf.Flags,
		InstallTags:   jf.InstallTags,
		FileSize:      jf.FileSize,
		MimeType:      jf.MimeType,
	}

	if jf.Hash != "" {
		raw, err := parseDigest(jf.Hash, 20, "hash")
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", jf.Filename, err)
		}
		copy(f.Hash[:], raw)
	}
	if jf.HashMD5 != "" {
		raw, err := parseDigest(jf.HashMD5, 16, "hashMd5")
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", jf.Filename, err)
		}
		f.HashMD5 = raw
	}
	if jf.HashSHA256 != "" {
		raw, err := parseDigest(jf.HashSHA256, 32, "hashSha256")
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", jf.Filename, err)
		}
		f.HashSHA256 = raw
	}

	if len(jf.ChunkParts) > 0 {
		f.ChunkParts = make([]ChunkPart, len(jf.ChunkParts))
	}
	for i := range jf.ChunkParts {
		jp := &jf.ChunkParts[i]
		guid, err := parseGUIDForms(jp.GUID, jp.GUIDStr, "chunk part")
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", jf.Filename, err)
		}
		f.ChunkParts[i] = ChunkPart{
			GUID:       guid,
			Offset:     jp.Offset,
			Size:       jp.Size,
			FileOffset: jp.FileOffset,
		}
	}
	return f, nil
}

// parseGUIDForms parses the primary guid field and, when the redundant
// string form is present, insists the two agree.
func parseGUIDForms(primary, alt, what string) (GUID, error) {
	guid, err := ParseGUID(primary)
	if err != nil {
		return GUID{}, err
	}
	if alt != "" {
		other, err := ParseGUID(alt)
		if err != nil {
			return GUID{}, err
		}
		if other != guid {
			return GUID{}, invariant("guidForms", "%s guid %s disagrees with guidStr %s", what, guid, other)
		}
	}
	return guid, nil
}

// parseHash parses the rolling hash as a decimal uint64. Going through
// json.Number avoids the float64 round-trip that would corrupt values above
// 2^53.
func parseHash(n json.Number, guid GUID) (uint64, error) {
	if n == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("manifest: chunk %s: bad hash %q: %w", guid, n, err)
	}
	return v, nil
}

func parseDigest(s string, size int, field string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("manifest: bad %s %q: %w", field, s, err)
	}
	if len(raw) != size {
		return nil, fmt.Errorf("manifest: bad %s: have %d bytes, want %d", field, len(raw), size)
	}
	return raw, nil
}

// =============================================================================
// Encoding
// =============================================================================

// EncodeJSON serializes the logical model as JSON. Binary transport fields
// (HeaderSize, IsCompressed) are not represented; everything else survives
// a decode round trip unchanged.
func EncodeJSON(m *Manifest) ([]byte, error) {
	jm := jsonManifest{
		Version:      m.Version,
		CustomFields: m.CustomFields,
	}

	if m.Meta != nil {
		jm.Meta = &jsonMeta{
			DataVersion:  m.Meta.DataVersion,
			FeatureLevel: m.Meta.FeatureLevel,
			IsFileData:   m.Meta.IsFileData,

			AppID:        m.Meta.AppID,
			AppName:      m.Meta.AppName,
			BuildVersion: m.Meta.BuildVersion,
			BuildID:      m.Meta.BuildID,

			LaunchExe:     m.Meta.LaunchExe,
			LaunchCommand: m.Meta.LaunchCommand,

			PrereqIDs:  m.Meta.PrereqIDs,
			PrereqName: m.Meta.PrereqName,
			PrereqPath: m.Meta.PrereqPath,
			PrereqArgs: m.Meta.PrereqArgs,

			UninstallActionPath: m.Meta.UninstallActionPath,
			UninstallActionArgs: m.Meta.UninstallActionArgs,
		}
	}

	if m.ChunkDataList != nil {
		chunkCount := m.ChunkDataList.Count
		jl := &jsonChunkList{
			Version:  m.ChunkDataList.Version,
			Count:    &chunkCount,
			Elements: make([]jsonChunk, len(m.ChunkDataList.Elements)),
		}
		for i := range m.ChunkDataList.Elements {
			c := &m.ChunkDataList.Elements[i]
			jc := jsonChunk{
				GUID:       c.GUID.String(),
				Hash:       json.Number(strconv.FormatUint(c.Hash, 10)),
				GroupNum:   c.GroupNum,
				WindowSize: c.WindowSize,
				FileSize:   c.FileSize,
			}
			if c.SHAHash != [20]byte{} {
				jc.SHAHash = hex.EncodeToString(c.SHAHash[:])
			}
			jl.Elements[i] = jc
		}
		jm.ChunkDataList = jl
	}

	if m.FileManifestList != nil {
		fileCount := m.FileManifestList.Count
		jl := &jsonFileList{
			Version:  m.FileManifestList.Version,
			Count:    &fileCount,
			Elements: make([]jsonFile, len(m.FileManifestList.Elements)),
		}
		for i := range m.FileManifestList.Elements {
			f := &m.FileManifestList.Elements[i]
			jf := jsonFile{
				Filename:      f.Filename,
				SymlinkTarget: f.SymlinkTarget,
				Flags:         f.Flags,
				InstallTags:   f.InstallTags,
				FileSize:      f.FileSize,
				MimeType:      f.MimeType,
				ChunkParts:    make([]jsonChunkPart, len(f.ChunkParts)),
			}
			if f.Hash != [20]byte{} {
				jf.Hash = hex.EncodeToString(f.Hash[:])
			}
			if len(f.HashMD5) > 0 {
				jf.HashMD5 = hex.EncodeToString(f.HashMD5)
			}
			if len(f.HashSHA256) > 0 {
				jf.HashSHA256 = hex.EncodeToString(f.HashSHA256)
			}
			for j := range f.ChunkParts {
				p := &f.ChunkParts[j]
				jf.ChunkParts[j] = jsonChunkPart{
					GUID:       p.GUID.String(),
					Offset:     p.Offset,
					Size:       p.Size,
					FileOffset: p.FileOffset,
				}
			}
			jl.Elements[i] = jf
		}
		jm.FileManifestList = jl
	}

	return json.MarshalIndent(jm, "", "  ")
}
