package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/zap"
)

const proofDir = "comprobantes"

var (
	ErrEmptyFile       = errors.New("empty_file")
	ErrFileTooLarge    = errors.New("file_too_large")
	ErrInvalidFileType = errors.New("invalid_file_type")
)

// Stored describes a file written by Storage.
type Stored struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Storage keeps payment proofs on local disk under a public URL prefix.
type Storage struct {
	root       string
	publicBase string
	maxBytes   int64
	store      *config.StoreConfigHolder
	log        *zap.Logger
}

func NewStorage(cfg config.Config, store *config.StoreConfigHolder, log *zap.Logger) (*Storage, error) {
	root := strings.TrimSpace(cfg.Upload.Dir)
	if root == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(filepath.Join(root, proofDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Storage{
		root:       root,
		publicBase: strings.TrimRight(cfg.Upload.PublicBase, "/"),
		maxBytes:   cfg.Upload.MaxBytes,
		store:      store,
		log:        log.Named("upload.storage"),
	}, nil
}

// Root is the directory served under PublicBase.
func (s *Storage) Root() string { return s.root }

func (s *Storage) PublicBase() string { return s.publicBase }

// MaxBytes is the effective proof size limit: the smaller of the configured cap and the store setting.
func (s *Storage) MaxBytes() int64 {
	limit := s.store.Get().ProofMaxBytes
	if s.maxBytes > 0 && (limit <= 0 || s.maxBytes < limit) {
		limit = s.maxBytes
	}
	return limit
}

// SaveProof sniffs the content type, enforces the size limit and writes the file.
func (s *Storage) SaveProof(ctx context.Context, r io.Reader) (Stored, error) {
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	limit := s.MaxBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Stored{}, ErrEmptyFile
	}
	if int64(len(data)) > limit {
		return Stored{}, ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	if !s.allowed(mtype) {
		return Stored{}, ErrInvalidFileType
	}

	name := strings.ToLower(ulid.Make().String()) + mtype.Extension()
	path := filepath.Join(s.root, proofDir, name)
	if err := writeFile(path, data); err != nil {
		return Stored{}, fmt.Errorf("write upload: %w", err)
	}

	stored := Stored{
		Name:     name,
		URL:      s.publicBase + "/" + proofDir + "/" + name,
		MimeType: mtype.String(),
		Size:     int64(len(data)),
	}
	s.log.Info("payment proof stored",
		zap.String("name", stored.Name),
		zap.String("mime_type", stored.MimeType),
		zap.Int64("size", stored.Size),
	)
	return stored, nil
}

// Remove deletes a stored proof by name; unknown names are ignored.
func (s *Storage) Remove(name string) error {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, proofDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Storage) allowed(mtype *mimetype.MIME) bool {
	for _, allowed := range s.store.Get().ProofMimeTypes {
		if mtype.Is(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
