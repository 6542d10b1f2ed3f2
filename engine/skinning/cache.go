package skinning

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/marionette/engine/core"
	"github.com/spaghettifunk/marionette/engine/resources"
	"github.com/spaghettifunk/marionette/engine/skeleton"
)

// Weight records are pure functions of mesh + skeleton + parameters, so
// they can be persisted to a compact binary sidecar keyed by a hash of
// those inputs and reused across sessions.

const (
	cacheMagic   = "MWGT"
	cacheVersion = uint16(1)
)

// ErrStaleCache indicates a weight cache was computed from different
// inputs than the ones presented at load time.
var ErrStaleCache = errors.New("weight cache key mismatch")

// CachedWeights pairs decoded records with the input key they were
// computed from, so callers can reject stale sidecars.
type CachedWeights struct {
	Records WeightRecords
	Key     [32]byte
}

// padBone fills unused influence slots in the fixed-size records.
const padBone = int32(-1)

// CacheKey hashes everything the weight computation depends on: vertex
// positions, bone names and rest segments, and the scoring parameters.
func CacheKey(mesh *resources.Mesh, skel *skeleton.Skeleton, opts Options) [32]byte {
	h := sha256.New()

	binary.Write(h, binary.LittleEndian, uint32(mesh.VertexCount()))
	for _, v := range mesh.Vertices {
		binary.Write(h, binary.LittleEndian, v.Position)
	}

	binary.Write(h, binary.LittleEndian, uint32(skel.BoneCount()))
	for i := 0; i < skel.BoneCount(); i++ {
		h.Write([]byte(skel.Bone(i).Name))
		seg := skel.RestSegment(i)
		binary.Write(h, binary.LittleEndian, seg.Start)
		binary.Write(h, binary.LittleEndian, seg.End)
	}

	binary.Write(h, binary.LittleEndian, int32(opts.MaxInfluences))
	binary.Write(h, binary.LittleEndian, opts.Falloff)
	binary.Write(h, binary.LittleEndian, opts.MaxDistance)

	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

type cacheHeader struct {
	Magic         [4]byte
	Version       uint16
	MaxInfluences uint16
	VertexCount   uint32
	Key           [32]byte
}

// SaveCache writes the records to a binary sidecar. Every vertex occupies
// a fixed maxInfluences slots; unused slots carry a -1 bone index.
func SaveCache(path string, records WeightRecords, key [32]byte, maxInfluences int) error {
	if maxInfluences < 1 {
		return fmt.Errorf("max influences %d: %w", maxInfluences, core.ErrInvalidConfiguration)
	}
	for v, record := range records {
		if len(record) > maxInfluences {
			return fmt.Errorf("vertex %d has %d influences, cache limit %d: %w", v, len(record), maxInfluences, core.ErrInvalidConfiguration)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := cacheHeader{
		Version:       cacheVersion,
		MaxInfluences: uint16(maxInfluences),
		VertexCount:   uint32(len(records)),
		Key:           key,
	}
	copy(header.Magic[:], cacheMagic)
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	for _, record := range records {
		for i := 0; i < maxInfluences; i++ {
			entry := BoneWeight{Bone: padBone}
			if i < len(record) {
				entry = record[i]
			}
			if err := binary.Write(w, binary.LittleEndian, entry); err != nil {
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	core.LogInfo("weight cache saved: %s (%d vertices)", path, len(records))
	return nil
}

// LoadCache reads a sidecar back, returning the records and the input key
// they were computed from.
func LoadCache(path string) (WeightRecords, [32]byte, error) {
	var key [32]byte

	f, err := os.Open(path)
	if err != nil {
		return nil, key, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var header cacheHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, key, fmt.Errorf("weight cache %s: %w", path, err)
	}
	if string(header.Magic[:]) != cacheMagic {
		return nil, key, fmt.Errorf("weight cache %s: bad magic: %w", path, core.ErrInvalidConfiguration)
	}
	if header.Version != cacheVersion {
		return nil, key, fmt.Errorf("weight cache %s: unsupported version %d: %w", path, header.Version, core.ErrInvalidConfiguration)
	}
	if header.MaxInfluences < 1 {
		return nil, key, fmt.Errorf("weight cache %s: zero influence slots: %w", path, core.ErrInvalidConfiguration)
	}

	// The vertex count sizes the allocation below, so bound it by what the
	// file can actually hold before trusting it.
	info, err := f.Stat()
	if err != nil {
		return nil, key, err
	}
	headerSize := int64(binary.Size(cacheHeader{}))
	recordSize := int64(header.MaxInfluences) * int64(binary.Size(BoneWeight{}))
	if int64(header.VertexCount) > (info.Size()-headerSize)/recordSize {
		return nil, key, fmt.Errorf("weight cache %s: vertex count %d exceeds file size %d: %w",
			path, header.VertexCount, info.Size(), core.ErrInvalidConfiguration)
	}

	records := make(WeightRecords, header.VertexCount)
	for v := range records {
		record := make(WeightRecord, 0, header.MaxInfluences)
		for i := 0; i < int(header.MaxInfluences); i++ {
			var entry BoneWeight
			if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
				return nil, key, fmt.Errorf("weight cache %s vertex %d: %w", path, v, err)
			}
			if entry.Bone != padBone {
				record = append(record, entry)
			}
		}
		records[v] = record
	}

	return records, header.Key, nil
}

// LoadCacheMatching loads a sidecar and rejects it with ErrStaleCache when
// it was computed from different inputs.
func LoadCacheMatching(path string, key [32]byte) (WeightRecords, error) {
	records, storedKey, err := LoadCache(path)
	if err != nil {
		return nil, err
	}
	if storedKey != key {
		return nil, fmt.Errorf("weight cache %s: %w", path, ErrStaleCache)
	}
	return records, nil
}
