package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strconv"
)

// Key is a hex SHA-256 fingerprint of everything that affects an engine result.
type Key string

// Params are the engine settings folded into a Key.
type Params struct {
	Engine         string
	Model          string
	Language       string
	ChunkSeconds   float64
	OverlapSeconds float64
	Format         string
	Device         string
	ComputeType    string
	// Extra carries any further engine option that changes output.
	Extra map[string]string
}

// ContentHash streams the file at path through SHA-256.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewKey derives the fingerprint for content hashed by ContentHash and p.
// Every field is length-prefixed so adjacent values cannot run together.
func NewKey(content string, p Params) Key {
	h := sha256.New()
	field(h, "v1")
	field(h, content)
	field(h, p.Engine)
	field(h, p.Model)
	field(h, p.Language)
	field(h, strconv.FormatFloat(p.ChunkSeconds, 'g', -1, 64))
	field(h, strconv.FormatFloat(p.OverlapSeconds, 'g', -1, 64))
	field(h, p.Format)
	field(h, p.Device)
	field(h, p.ComputeType)

	names := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		field(h, k)
		field(h, p.Extra[k])
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

func field(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}
