package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
)

// LocalFileStore раскладывает файлы по хэшу содержимого на локальном диске
type LocalFileStore struct {
	root string
}

func NewLocalFileStore(root string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &LocalFileStore{root: root}, nil
}

func (s *LocalFileStore) getPath(ref string) string {
	if len(ref) < 2 {
		return filepath.Join(s.root, ref)
	}
	return filepath.Join(s.root, ref[:2], ref)
}

func (s *LocalFileStore) Save(r io.Reader) (*StoredFile, error) {
	tmp, err := os.CreateTemp(s.root, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return nil, fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	ref := hex.EncodeToString(hasher.Sum(nil))

	mime := "application/octet-stream"
	if t, err := filetype.MatchFile(tmp.Name()); err == nil && t != filetype.Unknown {
		mime = t.MIME.Value
	}

	stored := &StoredFile{Ref: ref, MIME: mime, Size: size}

	path := s.getPath(ref)

	// Идемпотентность: такой блоб уже лежит на месте
	if _, err := os.Stat(path); err == nil {
		return stored, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	return stored, nil
}

func (s *LocalFileStore) Open(ref string) (io.ReadCloser, error) {
	f, err := os.Open(s.getPath(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", ref, err)
	}
	return f, nil
}
