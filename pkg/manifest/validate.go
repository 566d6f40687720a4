package manifest

import "sort"

// validate enforces the structural invariants shared by both wire formats.
// The binary and JSON decoders both call it before returning; a manifest
// that fails here is rejected outright.
func validate(m *Manifest) error {
	var chunkIdx map[GUID]int

	if l := m.ChunkDataList; l != nil {
		if int(l.Count) != len(l.Elements) {
			return invariant("chunkCount", "declared %d, have %d elements", l.Count, len(l.Elements))
		}
		chunkIdx = l.ByGUID()
	}

	if l := m.FileManifestList; l != nil {
		if int(l.Count) != len(l.Elements) {
			return invariant("fileCount", "declared %d, have %d elements", l.Count, len(l.Elements))
		}
		for i := range l.Elements {
			if err := validateFile(&l.Elements[i], m.ChunkDataList, chunkIdx); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateFile checks one file's chunk-part coverage and references:
// parts ordered by file offset must tile the file gap-free from 0, their
// sizes must sum to the declared file size, every referenced chunk must
// exist, and no part may read past its chunk's window.
//
// Parts are inspected in file-offset order regardless of their order in the
// manifest; the input slice is never reordered. The sort is stable so parts
// sharing a file offset (possible only when one of them is zero-sized) are
// judged in manifest order, keeping the verdict a function of the input.
func validateFile(f *FileManifest, chunks *ChunkDataList, chunkIdx map[GUID]int) error {
	order := make([]int, len(f.ChunkParts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.ChunkParts[order[a]].FileOffset < f.ChunkParts[order[b]].FileOffset
	})

	var next int64
	var total int64

	for _, i := range order {
		p := &f.ChunkParts[i]

		if p.FileOffset != next {
			return invariant("partCoverage", "file %q part %d at offset %d, want %d",
				f.Filename, i, p.FileOffset, next)
		}
		next += int64(p.Size)
		total += int64(p.Size)

		idx, ok := 0, false
		if chunkIdx != nil {
			idx, ok = chunkIdx[p.GUID]
		}
		if !ok {
			return invariant("chunkRef", "file %q part %d references unknown chunk %s",
				f.Filename, i, p.GUID)
		}
		chunk := &chunks.Elements[idx]
		if uint64(p.Offset)+uint64(p.Size) > uint64(chunk.WindowSize) {
			return invariant("windowBounds", "file %q part %d reads [%d, %d) beyond chunk %s window %d",
				f.Filename, i, p.Offset, uint64(p.Offset)+uint64(p.Size), p.GUID, chunk.WindowSize)
		}
	}

	if total != f.FileSize {
		return invariant("fileSize", "file %q parts sum to %d, declared %d",
			f.Filename, total, f.FileSize)
	}
	return nil
}
