package manifest

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

const (
	// binaryMagic is the little-endian uint32 value of the leading bytes
	// 0x0C 0xC0 0xBE 0x44 that identify a binary manifest.
	binaryMagic uint32 = 0x44BEC00C

	// binaryHeaderSize is the fixed byte length of the binary header.
	binaryHeaderSize = 41

	// maxSupportedVersion is the newest format revision this codec accepts.
	maxSupportedVersion = 21

	// storedCompressed marks a zlib-compressed body in the header's
	// stored-as field.
	storedCompressed = 0x01
)

// =============================================================================
// Reader
// =============================================================================

// reader walks a byte slice with bounds-checked, little-endian reads.
// Every read error wraps ErrTruncatedInput and names the field.
type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) bytes(n int, what string) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, truncated(what)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8(what string) (uint8, error) {
	b, err := r.bytes(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32(what string) (uint32, error) {
	b, err := r.bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64(what string) (uint64, error) {
	b, err := r.bytes(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) i64(what string) (int64, error) {
	v, err := r.u64(what)
	return int64(v), err
}

// fstring reads a length-prefixed string. A positive length prefix means
// length bytes of UTF-8 including a trailing NUL; a negative prefix means
// -length UTF-16LE code units including the terminator.
func (r *reader) fstring(what string) (string, error) {
	n, err := r.u32(what)
	if err != nil {
		return "", err
	}
	length := int32(n)

	switch {
	case length == 0:
		return "", nil

	case length > 0:
		b, err := r.bytes(int(length), what)
		if err != nil {
			return "", err
		}
		if b[length-1] != 0 {
			return "", fmt.Errorf("%w: %s: missing nul terminator", ErrMalformedUTF8, what)
		}
		s := b[:length-1]
		if !utf8.Valid(s) {
			return "", fmt.Errorf("%w: %s", ErrMalformedUTF8, what)
		}
		return string(s), nil

	default:
		units := int(-length)
		b, err := r.bytes(units*2, what)
		if err != nil {
			return "", err
		}
		if binary.LittleEndian.Uint16(b[(units-1)*2:]) != 0 {
			return "", fmt.Errorf("%w: %s: missing nul terminator", ErrMalformedUTF8, what)
		}
		u16 := make([]uint16, units-1)
		for i := range u16 {
			u16[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		if !validUTF16(u16) {
			return "", fmt.Errorf("%w: %s: invalid utf-16", ErrMalformedUTF8, what)
		}
		return string(utf16.Decode(u16)), nil
	}
}

// validUTF16 reports whether the code units are well formed: every high
// surrogate is followed by a low surrogate and no low surrogate stands
// alone.
func validUTF16(u []uint16) bool {
	for i := 0; i < len(u); i++ {
		switch c := u[i]; {
		case c >= 0xD800 && c < 0xDC00:
			if i+1 == len(u) || u[i+1] < 0xDC00 || u[i+1] >= 0xE000 {
				return false
			}
			i++
		case c >= 0xDC00 && c < 0xE000:
			return false
		}
	}
	return true
}

// block reads a size-prefixed block and returns a reader scoped to its
// content. The parent reader is advanced past the whole block, so unknown
// trailing data inside a block from a newer revision is skipped, not fatal.
func (r *reader) block(what string) (*reader, error) {
	start := r.off
	size, err := r.u32(what + " size")
	if err != nil {
		return nil, err
	}
	if size < 4 || start+int(size) > len(r.data) {
		return nil, truncated(what)
	}
	content := &reader{data: r.data[:start+int(size)], off: r.off}
	r.off = start + int(size)
	return content, nil
}

// =============================================================================
// Decoding
// =============================================================================

// decodeBinary parses a full binary manifest payload: fixed header,
// optional zlib inflation, then the structural blocks.
func decodeBinary(data []byte) (*Manifest, error) {
	if len(data) < binaryHeaderSize {
		return nil, truncated("header")
	}

	hdr := &reader{data: data[:binaryHeaderSize]}
	magic, _ := hdr.u32("magic")
	if magic != binaryMagic {
		return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, magic)
	}
	headerSize, _ := hdr.u32("headerSize")
	sizeUncompressed, _ := hdr.u32("sizeUncompressed")
	sizeCompressed, _ := hdr.u32("sizeCompressed")
	shaBytes, _ := hdr.bytes(20, "bodyDigest")
	storedAs, _ := hdr.u8("storedAs")
	version, err := hdr.u32("version")
	if err != nil {
		return nil, err
	}

	if version > maxSupportedVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if headerSize < binaryHeaderSize || int(headerSize) > len(data) {
		return nil, truncated("body")
	}

	compressed := storedAs&storedCompressed != 0
	body := data[headerSize:]
	if len(body) < int(sizeCompressed) {
		return nil, truncated("body")
	}
	body = body[:sizeCompressed]

	if compressed {
		body, err = inflate(body)
		if err != nil {
			return nil, err
		}
	}
	if len(body) != int(sizeUncompressed) {
		return nil, invariant("bodySize", "have %d bytes, header declares %d", len(body), sizeUncompressed)
	}
	if digest := sha1.Sum(body); !bytes.Equal(digest[:], shaBytes) {
		return nil, invariant("bodyDigest", "body digest does not match header")
	}

	m := &Manifest{
		Version:      version,
		HeaderSize:   headerSize,
		IsCompressed: compressed,
	}

	r := &reader{data: body}
	if r.remaining() > 0 {
		if m.Meta, err = readMeta(r); err != nil {
			return nil, err
		}
	}
	if r.remaining() > 0 {
		if m.ChunkDataList, err = readChunkDataList(r); err != nil {
			return nil, err
		}
	}
	if r.remaining() > 0 {
		if m.FileManifestList, err = readFileManifestList(r); err != nil {
			return nil, err
		}
	}
	if r.remaining() > 0 {
		if m.CustomFields, err = readCustomFields(r); err != nil {
			return nil, err
		}
	}
	// Any bytes left over belong to blocks from a newer revision; they are
	// self-delimiting and safe to ignore.

	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func inflate(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
	}
	return out, nil
}

func readMeta(r *reader) (*Meta, error) {
	b, err := r.block("meta")
	if err != nil {
		return nil, err
	}

	m := &Meta{}
	if m.DataVersion, err = b.u8("meta dataVersion"); err != nil {
		return nil, err
	}
	if m.FeatureLevel, err = b.u32("meta featureLevel"); err != nil {
		return nil, err
	}
	isFileData, err := b.u8("meta isFileData")
	if err != nil {
		return nil, err
	}
	m.IsFileData = isFileData != 0

	fields := []struct {
		dst  *string
		name string
	}{
		{&m.AppID, "meta appId"},
		{&m.AppName, "meta appName"},
		{&m.BuildVersion, "meta buildVersion"},
		{&m.LaunchExe, "meta launchExe"},
		{&m.LaunchCommand, "meta launchCommand"},
	}
	for _, f := range fields {
		if *f.dst, err = b.fstring(f.name); err != nil {
			return nil, err
		}
	}

	prereqCount, err := b.u32("meta prereqIds count")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < prereqCount; i++ {
		id, err := b.fstring("meta prereqId")
		if err != nil {
			return nil, err
		}
		m.PrereqIDs = append(m.PrereqIDs, id)
	}
	if m.PrereqName, err = b.fstring("meta prereqName"); err != nil {
		return nil, err
	}
	if m.PrereqPath, err = b.fstring("meta prereqPath"); err != nil {
		return nil, err
	}
	if m.PrereqArgs, err = b.fstring("meta prereqArgs"); err != nil {
		return nil, err
	}

	// Fields below are gated by the meta data version; absent fields keep
	// their zero values.
	if m.DataVersion >= 1 {
		if m.BuildID, err = b.fstring("meta buildId"); err != nil {
			return nil, err
		}
	}
	if m.DataVersion >= 2 {
		if m.UninstallActionPath, err = b.fstring("meta uninstallActionPath"); err != nil {
			return nil, err
		}
		if m.UninstallActionArgs, err = b.fstring("meta uninstallActionArgs"); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// readChunkDataList parses the chunk block. Fields are stored column-wise
// (all GUIDs, then all hashes, ...) so each column is one contiguous read.
func readChunkDataList(r *reader) (*ChunkDataList, error) {
	b, err := r.block("chunkDataList")
	if err != nil {
		return nil, err
	}

	l := &ChunkDataList{}
	if l.Version, err = b.u8("chunk list version"); err != nil {
		return nil, err
	}
	if l.Count, err = b.u32("chunk count"); err != nil {
		return nil, err
	}

	// Guard against absurd declared counts before allocating. Zero-count
	// lists keep a nil Elements slice.
	if int(l.Count) > b.remaining() {
		return nil, truncated("chunk elements")
	}
	if l.Count > 0 {
		l.Elements = make([]ChunkInfo, l.Count)
	}

	for i := range l.Elements {
		raw, err := b.bytes(16, "chunk guid")
		if err != nil {
			return nil, err
		}
		if l.Elements[i].GUID, err = GUIDFromBytes(raw); err != nil {
			return nil, err
		}
	}
	for i := range l.Elements {
		if l.Elements[i].Hash, err = b.u64("chunk hash"); err != nil {
			return nil, err
		}
	}
	for i := range l.Elements {
		raw, err := b.bytes(20, "chunk shaHash")
		if err != nil {
			return nil, err
		}
		copy(l.Elements[i].SHAHash[:], raw)
	}
	for i := range l.Elements {
		if l.Elements[i].GroupNum, err = b.u32("chunk groupNum"); err != nil {
			return nil, err
		}
	}
	for i := range l.Elements {
		if l.Elements[i].WindowSize, err = b.u32("chunk windowSize"); err != nil {
			return nil, err
		}
	}
	for i := range l.Elements {
		if l.Elements[i].FileSize, err = b.i64("chunk fileSize"); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func readFileManifestList(r *reader) (*FileManifestList, error) {
	b, err := r.block("fileManifestList")
	if err != nil {
		return nil, err
	}

	l := &FileManifestList{}
	if l.Version, err = b.u8("file list version"); err != nil {
		return nil, err
	}
	if l.Count, err = b.u32("file count"); err != nil {
		return nil, err
	}
	if int(l.Count) > b.remaining() {
		return nil, truncated("file elements")
	}
	if l.Count > 0 {
		l.Elements = make([]FileManifest, l.Count)
	}

	for i := range l.Elements {
		name, err := b.fstring("file filename")
		if err != nil {
			return nil, err
		}
		l.Elements[i].Filename = normalizePath(name)
	}
	for i := range l.Elements {
		if l.Elements[i].SymlinkTarget, err = b.fstring("file symlinkTarget"); err != nil {
			return nil, err
		}
	}
	for i := range l.Elements {
		raw, err := b.bytes(20, "file hash")
		if err != nil {
			return nil, err
		}
		copy(l.Elements[i].Hash[:], raw)
	}
	for i := range l.Elements {
		if l.Elements[i].Flags, err = b.u8("file flags"); err != nil {
			return nil, err
		}
	}
	for i := range l.Elements {
		tagCount, err := b.u32("file installTags count")
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < tagCount; j++ {
			tag, err := b.fstring("file installTag")
			if err != nil {
				return nil, err
			}
			l.Elements[i].InstallTags = append(l.Elements[i].InstallTags, tag)
		}
	}
	for i := range l.Elements {
		if err := readChunkParts(b, &l.Elements[i]); err != nil {
			return nil, err
		}
	}

	if l.Version >= 1 {
		for i := range l.Elements {
			hasMD5, err := b.u32("file hasMd5")
			if err != nil {
				return nil, err
			}
			if hasMD5 != 0 {
				raw, err := b.bytes(16, "file hashMd5")
				if err != nil {
					return nil, err
				}
				l.Elements[i].HashMD5 = append([]byte(nil), raw...)
			}
		}
		for i := range l.Elements {
			if l.Elements[i].MimeType, err = b.fstring("file mimeType"); err != nil {
				return nil, err
			}
		}
	}
	if l.Version >= 2 {
		for i := range l.Elements {
			raw, err := b.bytes(32, "file hashSha256")
			if err != nil {
				return nil, err
			}
			// An all-zero digest means the encoder had none.
			if !bytes.Equal(raw, make([]byte, 32)) {
				l.Elements[i].HashSHA256 = append([]byte(nil), raw...)
			}
		}
	}
	return l, nil
}

// readChunkParts parses one file's part list. File offsets are not stored
// on the wire; they accumulate from zero in part order. The file's declared
// size is likewise the sum of its part sizes.
func readChunkParts(b *reader, f *FileManifest) error {
	count, err := b.u32("part count")
	if err != nil {
		return err
	}
	if int(count) > b.remaining() {
		return truncated("chunk parts")
	}

	var fileOffset int64
	if count > 0 {
		f.ChunkParts = make([]ChunkPart, count)
	}
	for i := range f.ChunkParts {
		start := b.off
		partSize, err := b.u32("part size")
		if err != nil {
			return err
		}
		raw, err := b.bytes(16, "part guid")
		if err != nil {
			return err
		}
		guid, err := GUIDFromBytes(raw)
		if err != nil {
			return err
		}
		offset, err := b.u32("part offset")
		if err != nil {
			return err
		}
		size, err := b.u32("part length")
		if err != nil {
			return err
		}

		f.ChunkParts[i] = ChunkPart{
			GUID:       guid,
			Offset:     offset,
			Size:       size,
			FileOffset: fileOffset,
		}
		fileOffset += int64(size)

		// Skip past any extension fields a newer revision appended.
		if partSize < 4 || start+int(partSize) > len(b.data) {
			return truncated("part")
		}
		b.off = start + int(partSize)
	}
	f.FileSize = fileOffset
	return nil
}

func readCustomFields(r *reader) (map[string]string, error) {
	b, err := r.block("customFields")
	if err != nil {
		return nil, err
	}

	if _, err = b.u8("customFields version"); err != nil {
		return nil, err
	}
	count, err := b.u32("customFields count")
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	keys := make([]string, count)
	for i := range keys {
		if keys[i], err = b.fstring("customFields key"); err != nil {
			return nil, err
		}
	}
	fields := make(map[string]string, count)
	for i := range keys {
		v, err := b.fstring("customFields value")
		if err != nil {
			return nil, err
		}
		fields[keys[i]] = v
	}
	return fields, nil
}

func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// =============================================================================
// Encoding
// =============================================================================

// EncodeBinary serializes a manifest to the binary wire format. It is the
// inverse of the binary decoder: the output is accepted by Decode and
// decodes back to an equal model. It does not aim for byte parity with any
// historical encoder.
//
// Nil optional sections are written as empty blocks (the binary layout is
// positional), so a decoded copy materializes them as zero-valued sections.
// A HeaderSize beyond the fixed 41-byte layout is honored by zero-padding
// the header; zero selects the fixed size.
func EncodeBinary(m *Manifest) ([]byte, error) {
	if m.Version > maxSupportedVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	headerSize := m.HeaderSize
	if headerSize == 0 {
		headerSize = binaryHeaderSize
	}
	if headerSize < binaryHeaderSize {
		return nil, fmt.Errorf("manifest: header size %d below the %d-byte layout", headerSize, binaryHeaderSize)
	}

	var body bytes.Buffer
	writeMeta(&body, m.Meta)
	writeChunkDataList(&body, m.ChunkDataList)
	writeFileManifestList(&body, m.FileManifestList)
	writeCustomFields(&body, m.CustomFields)

	raw := body.Bytes()
	digest := sha1.Sum(raw)

	stored := raw
	storedAs := uint8(0)
	if m.IsCompressed {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		stored = buf.Bytes()
		storedAs = storedCompressed
	}

	out := bytes.NewBuffer(make([]byte, 0, int(headerSize)+len(stored)))
	wu32(out, binaryMagic)
	wu32(out, headerSize)
	wu32(out, uint32(len(raw)))
	wu32(out, uint32(len(stored)))
	out.Write(digest[:])
	out.WriteByte(storedAs)
	wu32(out, m.Version)
	// Decoders take the body from the declared header size onward, so any
	// extra header bytes are plain padding.
	out.Write(make([]byte, headerSize-binaryHeaderSize))
	out.Write(stored)
	return out.Bytes(), nil
}

func wu32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func wu64(w *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

// wstr writes a length-prefixed UTF-8 string with a NUL terminator. The
// decoder additionally accepts UTF-16 strings; the encoder never emits them.
func wstr(w *bytes.Buffer, s string) {
	if s == "" {
		wu32(w, 0)
		return
	}
	wu32(w, uint32(len(s)+1))
	w.WriteString(s)
	w.WriteByte(0)
}

// finishBlock prefixes content with its total size (including the size
// field itself) and appends it to w.
func finishBlock(w *bytes.Buffer, content *bytes.Buffer) {
	wu32(w, uint32(content.Len()+4))
	w.Write(content.Bytes())
}

func writeMeta(w *bytes.Buffer, m *Meta) {
	if m == nil {
		m = &Meta{}
	}
	var b bytes.Buffer
	b.WriteByte(m.DataVersion)
	wu32(&b, m.FeatureLevel)
	if m.IsFileData {
		b.WriteByte(1)
	} else {
		b.WriteByte(0)
	}
	wstr(&b, m.AppID)
	wstr(&b, m.AppName)
	wstr(&b, m.BuildVersion)
	wstr(&b, m.LaunchExe)
	wstr(&b, m.LaunchCommand)
	wu32(&b, uint32(len(m.PrereqIDs)))
	for _, id := range m.PrereqIDs {
		wstr(&b, id)
	}
	wstr(&b, m.PrereqName)
	wstr(&b, m.PrereqPath)
	wstr(&b, m.PrereqArgs)
	if m.DataVersion >= 1 {
		wstr(&b, m.BuildID)
	}
	if m.DataVersion >= 2 {
		wstr(&b, m.UninstallActionPath)
		wstr(&b, m.UninstallActionArgs)
	}
	finishBlock(w, &b)
}

func writeChunkDataList(w *bytes.Buffer, l *ChunkDataList) {
	if l == nil {
		l = &ChunkDataList{}
	}
	var b bytes.Buffer
	b.WriteByte(l.Version)
	wu32(&b, uint32(len(l.Elements)))
	for i := range l.Elements {
		b.Write(l.Elements[i].GUID.Bytes())
	}
	for i := range l.Elements {
		wu64(&b, l.Elements[i].Hash)
	}
	for i := range l.Elements {
		b.Write(l.Elements[i].SHAHash[:])
	}
	for i := range l.Elements {
		wu32(&b, l.Elements[i].GroupNum)
	}
	for i := range l.Elements {
		wu32(&b, l.Elements[i].WindowSize)
	}
	for i := range l.Elements {
		wu64(&b, uint64(l.Elements[i].FileSize))
	}
	finishBlock(w, &b)
}

func writeFileManifestList(w *bytes.Buffer, l *FileManifestList) {
	if l == nil {
		l = &FileManifestList{}
	}
	var b bytes.Buffer
	b.WriteByte(l.Version)
	wu32(&b, uint32(len(l.Elements)))
	for i := range l.Elements {
		wstr(&b, l.Elements[i].Filename)
	}
	for i := range l.Elements {
		wstr(&b, l.Elements[i].SymlinkTarget)
	}
	for i := range l.Elements {
		b.Write(l.Elements[i].Hash[:])
	}
	for i := range l.Elements {
		b.WriteByte(l.Elements[i].Flags)
	}
	for i := range l.Elements {
		wu32(&b, uint32(len(l.Elements[i].InstallTags)))
		for _, tag := range l.Elements[i].InstallTags {
			wstr(&b, tag)
		}
	}
	for i := range l.Elements {
		parts := l.Elements[i].ChunkParts
		wu32(&b, uint32(len(parts)))
		for j := range parts {
			wu32(&b, 28) // part record size: size field + guid + offset + length
			b.Write(parts[j].GUID.Bytes())
			wu32(&b, parts[j].Offset)
			wu32(&b, parts[j].Size)
		}
	}
	if l.Version >= 1 {
		for i := range l.Elements {
			if md5 := l.Elements[i].HashMD5; len(md5) == 16 {
				wu32(&b, 1)
				b.Write(md5)
			} else {
				wu32(&b, 0)
			}
		}
		for i := range l.Elements {
			wstr(&b, l.Elements[i].MimeType)
		}
	}
	if l.Version >= 2 {
		for i := range l.Elements {
			if sha := l.Elements[i].HashSHA256; len(sha) == 32 {
				b.Write(sha)
			} else {
				b.Write(make([]byte, 32))
			}
		}
	}
	finishBlock(w, &b)
}

func writeCustomFields(w *bytes.Buffer, fields map[string]string) {
	var b bytes.Buffer
	b.WriteByte(0)
	wu32(&b, uint32(len(fields)))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		wstr(&b, k)
	}
	for _, k := range keys {
		wstr(&b, fields[k])
	}
	finishBlock(w, &b)
}
