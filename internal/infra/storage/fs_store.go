package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foodie/internal/domain"
	ports "foodie/internal/domain/ports/storage"
)

var _ ports.ArtifactStore = (*FSStore)(nil)

// FSStore keeps photo artifacts as flat files under a single directory.
// The key carries the file extension, which is also how the MIME type is
// recovered on Load.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Save(ctx context.Context, key string, data []byte, mimeType string) error {
	if err := validKey(key); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, key), data, 0o644)
}

func (s *FSStore) Load(ctx context.Context, key string) ([]byte, string, error) {
	if err := validKey(key); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", domain.ErrArtifactMissing
		}
		return nil, "", err
	}
	return data, MIMEForKey(key), nil
}

func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := validKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FSStore) SweepOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
				removed = append(removed, e.Name())
			}
		}
	}
	return removed, nil
}

// MIMEForKey recovers the MIME type from the key's extension, falling back
// to JPEG for unknown extensions.
func MIMEForKey(key string) string {
	if t := mime.TypeByExtension(filepath.Ext(key)); t != "" {
		return t
	}
	return "image/jpeg"
}

// ExtForMIME picks the artifact key extension for an upload's MIME type.
func ExtForMIME(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return domain.ErrInvalidArgument
	}
	return nil
}
