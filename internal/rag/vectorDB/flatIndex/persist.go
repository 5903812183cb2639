package flatIndex

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"gopkg.in/yaml.v3"
)

const (
	IndexFile     = "index.gob"
	ManifestFile  = "manifest.yaml"
	formatVersion = 1
)

var logger = logger_i.NewLogger("flat_index")

// Manifest describes index.gob and is checked before it is decoded.
type Manifest struct {
	Version   int       `yaml:"version"`
	Metric    Metric    `yaml:"metric"`
	Dimension int       `yaml:"dimension"`
	Count     int       `yaml:"count"`
	ModelInfo string    `yaml:"model_info"`
	SHA256    string    `yaml:"sha256"`
	CreatedAt time.Time `yaml:"created_at"`
}

type payload struct {
	Chunks  []commonModels.DocChunk
	Vectors [][]float32
}

// Persist writes the index into dir, replacing whatever was there. Readers
// see either the old index or the new one, never a partial write.
func (ix *Index) Persist(dir string) error {
	dir = filepath.Clean(dir)
	parent, base := filepath.Dir(dir), filepath.Base(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	tmp, err := os.MkdirTemp(parent, "."+base+".tmp-")
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp)
		}
	}()

	checksum, err := ix.writePayload(filepath.Join(tmp, IndexFile))
	if err != nil {
		return err
	}
	manifest := Manifest{
		Version:   formatVersion,
		Metric:    ix.metric,
		Dimension: ix.dimension,
		Count:     len(ix.chunks),
		ModelInfo: ix.modelInfo,
		SHA256:    checksum,
		CreatedAt: ix.createdAt,
	}
	raw, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeFileSync(filepath.Join(tmp, ManifestFile), raw); err != nil {
		return err
	}
	if err := syncDir(tmp); err != nil {
		return err
	}

	if err := swapDir(tmp, dir); err != nil {
		return err
	}
	committed = true
	if err := syncDir(parent); err != nil {
		logger.Warn("Could not sync parent directory", "path", parent, "error", err)
	}
	logger.Info("Index persisted", "path", dir, "chunks", manifest.Count, "dimension", manifest.Dimension)
	return nil
}

func (ix *Index) writePayload(path string) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	enc := gob.NewEncoder(io.MultiWriter(f, hash))
	if err := enc.Encode(payload{Chunks: ix.chunks, Vectors: ix.vectors}); err != nil {
		return "", fmt.Errorf("encoding index: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// backupDir is where the previous index waits while a new one is swapped in.
func backupDir(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".old")
}

// swapDir moves staged into place. An existing target is moved aside to
// backupDir first and only removed after the new one is in place; Load
// restores it if the process died in between.
func swapDir(staged string, target string) error {
	backup := ""
	if _, err := os.Stat(target); err == nil {
		backup = backupDir(target)
		if err := os.RemoveAll(backup); err != nil {
			return fmt.Errorf("clearing stale backup: %w", err)
		}
		if err := os.Rename(target, backup); err != nil {
			return fmt.Errorf("moving previous index aside: %w", err)
		}
	}
	if err := os.Rename(staged, target); err != nil {
		if backup != "" {
			_ = os.Rename(backup, target)
		}
		return fmt.Errorf("installing index: %w", err)
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			logger.Warn("Could not remove previous index", "path", backup, "error", err)
		}
	}
	return nil
}

// Load reads an index written by Persist. A missing index is ErrIndexNotFound;
// anything that does not match its manifest is ErrIndexCorrupt.
func Load(dir string) (*Index, error) {
	dir = filepath.Clean(dir)
	manifestPath := filepath.Join(dir, ManifestFile)
	raw, err := os.ReadFile(manifestPath)
	if errors.Is(err, fs.ErrNotExist) && restoreBackup(dir) {
		raw, err = os.ReadFile(manifestPath)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ragErrors.ErrIndexNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", manifestPath, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: bad manifest: %v", ragErrors.ErrIndexCorrupt, err)
	}
	if manifest.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ragErrors.ErrIndexCorrupt, manifest.Version)
	}

	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragErrors.ErrIndexCorrupt, err)
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != manifest.SHA256 {
		return nil, fmt.Errorf("%w: checksum mismatch for %s", ragErrors.ErrIndexCorrupt, IndexFile)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ragErrors.ErrIndexCorrupt, err)
	}

	ix, err := Build(p.Vectors, p.Chunks, manifest.Metric, manifest.ModelInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragErrors.ErrIndexCorrupt, err)
	}
	if ix.Len() != manifest.Count || ix.Dimension() != manifest.Dimension {
		return nil, fmt.Errorf("%w: manifest says %d x %d, data is %d x %d",
			ragErrors.ErrIndexCorrupt, manifest.Count, manifest.Dimension, ix.Len(), ix.Dimension())
	}
	ix.createdAt = manifest.CreatedAt
	logger.Debug("Index loaded", "path", dir, "chunks", ix.Len(), "metric", ix.metric)
	return ix, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Sync()
}

func syncDir(path string) error {
	d, err := os.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// restoreBackup puts back an index left aside by an interrupted swap. It only
// acts when dir is gone and the backup still holds a manifest.
func restoreBackup(dir string) bool {
	backup := backupDir(dir)
	if _, err := os.Stat(filepath.Join(backup, ManifestFile)); err != nil {
		return false
	}
	if _, err := os.Lstat(dir); !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err := os.Rename(backup, dir); err != nil {
		logger.Warn("Could not restore previous index", "path", backup, "error", err)
		return false
	}
	logger.Warn("Restored index from an interrupted swap", "path", dir)
	return true
}
