package site

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/alescoulie/sitegen/internal/config"
	"github.com/alescoulie/sitegen/internal/version"
)

// InputRoot labels one directory tree that feeds the build. The label, not
// the path, goes into the hash, so a tree that moves (local checkout vs.
// synced content) with identical contents produces the same signature.
type InputRoot struct {
	Label string
	Path  string
}

// BuildSignature represents the complete signature of a build's inputs.
// Two builds with identical signatures produce byte-identical output.
type BuildSignature struct {
	ContentHash string `json:"content_hash"` // hash over every input tree
	ConfigHash  string `json:"config_hash"`
	Version     string `json:"version"`
	InputHash   string `json:"input_hash"` // computed hash of all above
}

// ComputeBuildSignature hashes the input trees, the configuration and the
// generator version into a single signature.
func ComputeBuildSignature(cfg *config.Config, roots []InputRoot) (*BuildSignature, error) {
	contentHash, err := computeContentHash(roots)
	if err != nil {
		return nil, fmt.Errorf("compute content hash: %w", err)
	}
	configHash, err := computeConfigHash(cfg)
	if err != nil {
		return nil, fmt.Errorf("compute config hash: %w", err)
	}

	sig := &BuildSignature{
		ContentHash: contentHash,
		ConfigHash:  configHash,
		Version:     version.Version,
	}
	inputHash, err := computeSignatureHash(sig)
	if err != nil {
		return nil, fmt.Errorf("compute signature hash: %w", err)
	}
	sig.InputHash = inputHash
	return sig, nil
}

// computeContentHash hashes every file under every root. Roots that do not
// exist contribute their label only, same as an existing empty directory:
// the signature tracks files, not directories.
func computeContentHash(roots []InputRoot) (string, error) {
	h := sha256.New()
	for _, root := range roots {
		h.Write([]byte(root.Label))
		h.Write([]byte{0})
		if _, err := os.Stat(root.Path); os.IsNotExist(err) {
			continue
		}
		if err := hashTree(h, root.Path); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashTree feeds every regular file under root into h in lexical walk order.
func hashTree(h hash.Hash, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return err
		}
		h.Write([]byte{0})
		return nil
	})
}

// computeConfigHash hashes the effective configuration.
func computeConfigHash(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// computeSignatureHash computes the SHA256 hash of the signature components.
func computeSignatureHash(sig *BuildSignature) (string, error) {
	normalized := struct {
		ContentHash string `json:"content_hash"`
		ConfigHash  string `json:"config_hash"`
		Version     string `json:"version"`
	}{
		ContentHash: sig.ContentHash,
		ConfigHash:  sig.ConfigHash,
		Version:     sig.Version,
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("marshal signature: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Equals checks if two signatures are equal (same InputHash).
func (s *BuildSignature) Equals(other *BuildSignature) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.InputHash == other.InputHash
}
