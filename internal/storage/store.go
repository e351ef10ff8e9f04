package storage

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	metaFile  = "meta.msgpack"
	extension = ".msgpack"
)

// DefaultCacheSize is the number of patches kept in memory.
const DefaultCacheSize = 8

type envelope struct {
	Checksum  string    `msgpack:"checksum"`
	CreatedAt time.Time `msgpack:"created_at"`
	Payload   []byte    `msgpack:"payload"`
}

type meta struct {
	Timestamps []time.Time `msgpack:"timestamps"`
	BBox       [4]float64  `msgpack:"bbox"`
}

// Store persists patches as one directory per patch:
//
//	meta.msgpack
//	data/<NAME>.msgpack
//	mask/<NAME>.msgpack
//	scalar/<NAME>.msgpack
type Store struct {
	patches *lru.Cache[string, *eopatch.Patch]
}

func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	patches, err := lru.New[string, *eopatch.Patch](size)
	if err != nil {
		return nil, fmt.Errorf("creating patch cache: %w", err)
	}
	return &Store{patches: patches}, nil
}

func cacheKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// Load reads the patch stored in dir. A missing directory gives an empty patch.
func (s *Store) Load(dir string) (*eopatch.Patch, error) {
	key := cacheKey(dir)
	if p, ok := s.patches.Get(key); ok {
		return p, nil
	}

	var m meta
	if err := readFile(filepath.Join(dir, metaFile), &m); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return eopatch.New(nil, orb.Bound{}), nil
		}
		return nil, err
	}

	for i, ts := range m.Timestamps {
		m.Timestamps[i] = ts.UTC()
	}
	p := eopatch.New(m.Timestamps, orb.Bound{
		Min: orb.Point{m.BBox[0], m.BBox[1]},
		Max: orb.Point{m.BBox[2], m.BBox[3]},
	})
	if err := loadArena(dir, eopatch.FeatureData, p.Data); err != nil {
		return nil, err
	}
	if err := loadArena(dir, eopatch.FeatureMask, p.Mask); err != nil {
		return nil, err
	}
	if err := loadArena(dir, eopatch.FeatureScalar, p.Scalar); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("patch in %s is inconsistent: %w", dir, err)
	}

	log.Debug().Str("dir", dir).Int("timestamps", p.Len()).Msg("patch loaded")
	s.patches.Add(key, p)
	return p, nil
}

func loadArena[T eopatch.Number](dir string, ft eopatch.FeatureType, arena map[string]eopatch.Cube[T]) error {
	entries, err := os.ReadDir(filepath.Join(dir, string(ft)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list %s features: %w", ft, err)
	}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), extension)
		if entry.IsDir() || !ok {
			continue
		}
		var cube eopatch.Cube[T]
		if err := readFile(filepath.Join(dir, string(ft), entry.Name()), &cube); err != nil {
			return err
		}
		arena[name] = cube
	}
	return nil
}

// Save writes every feature of p into dir. Feature files that p does not hold are left
// in place.
func (s *Store) Save(dir string, p *eopatch.Patch) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to save inconsistent patch: %w", err)
	}
	s.patches.Remove(cacheKey(dir))

	m := meta{
		Timestamps: p.Timestamps,
		BBox:       [4]float64{p.BBox.Min.X(), p.BBox.Min.Y(), p.BBox.Max.X(), p.BBox.Max.Y()},
	}
	if err := writeFile(filepath.Join(dir, metaFile), m); err != nil {
		return err
	}
	for _, f := range p.Features() {
		var value any
		switch f.Type {
		case eopatch.FeatureData:
			value = p.Data[f.Name]
		case eopatch.FeatureMask:
			value = p.Mask[f.Name]
		case eopatch.FeatureScalar:
			value = p.Scalar[f.Name]
		}
		if err := writeFile(filepath.Join(dir, string(f.Type), f.Name+extension), value); err != nil {
			return err
		}
	}

	log.Info().Str("dir", dir).Int("timestamps", p.Len()).Int("features", len(p.Features())).Msg("patch saved")
	return nil
}

// Exists reports whether dir holds a stored patch.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, metaFile))
	return err == nil
}

func checksum(payload []byte) string {
	sum := md5.Sum(payload)
	return hex.EncodeToString(sum[:])
}

func writeFile(path string, v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return writeEnvelope(path, envelope{
		Checksum:  checksum(payload),
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
	})
}

func writeEnvelope(path string, env envelope) error {
	data, err := msgpack.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file %s: %w", tmpFile, err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file %s: %w", tmpFile, err)
	}
	return nil
}

func readEnvelope(path string, env *envelope) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := msgpack.Unmarshal(data, env); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func readFile(path string, v any) error {
	var env envelope
	if err := readEnvelope(path, &env); err != nil {
		return err
	}
	if checksum(env.Payload) != env.Checksum {
		return fmt.Errorf("checksum mismatch in %s", path)
	}
	if err := msgpack.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
