package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const uploadFolder = "forms"

var (
	root            = "./uploads"
	baseURL         = "/uploads"
	UseLocalStorage = true // Toggle: true = local, false = S3
)

// StoredFile is a persisted upload. Name is the relative path kept inside
// form_data; it combines with the configured base URL for retrieval.
type StoredFile struct {
	Name string
}

// Open returns the file contents from the active storage backend.
func (f *StoredFile) Open() (io.ReadCloser, error) {
	if !UseLocalStorage {
		return s3Open(f.Name)
	}
	return os.Open(filepath.Join(root, filepath.FromSlash(f.Name)))
}

// Init sets the local upload root and public base URL and creates the upload
// directory. MkdirAll tolerates the directory already existing, so concurrent
// first-uploads cannot race into an error here.
func Init(uploadRoot, publicBaseURL string) error {
	if uploadRoot != "" {
		root = uploadRoot
	}
	if publicBaseURL != "" {
		baseURL = strings.TrimSuffix(publicBaseURL, "/")
	}
	if err := os.MkdirAll(filepath.Join(root, uploadFolder), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %v", err)
	}
	return nil
}

// Root returns the configured local upload root.
func Root() string { return root }

// SaveUpload persists an uploaded file and returns its stored handle. The
// generated name carries a random prefix, so existing files are never
// overwritten.
func SaveUpload(fh *multipart.FileHeader) (*StoredFile, error) {
	if !UseLocalStorage {
		return saveToS3(fh)
	}
	return saveToLocal(fh)
}

func saveToLocal(fh *multipart.FileHeader) (*StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %v", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(fh.Filename))
	dir := filepath.Join(root, uploadFolder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %v", err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to save file: %v", err)
	}

	return &StoredFile{Name: path.Join(uploadFolder, name)}, nil
}

// Open resolves a stored relative path back into an openable handle. In local
// mode a missing file is an error; callers treat it as a recoverable,
// field-scoped fault. S3 keys are resolved lazily, the object is only fetched
// when the handle is read.
func Open(rel string) (*StoredFile, error) {
	if !UseLocalStorage {
		return &StoredFile{Name: rel}, nil
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Stat(full); err != nil {
		return nil, fmt.Errorf("stored file %q is not available: %v", rel, err)
	}
	return &StoredFile{Name: rel}, nil
}

// URL turns a stored relative path into a retrievable link.
func URL(rel string) string {
	return baseURL + "/" + strings.TrimPrefix(rel, "/")
}
