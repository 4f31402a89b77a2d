package images

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxFileSize = 10 * 1024 * 1024 // 10 MB

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	ErrEmptyFile       = fmt.Errorf("empty file")
	ErrFileTooLarge    = fmt.Errorf("file exceeds %d bytes", maxFileSize)
	ErrInvalidMimeType = fmt.Errorf("unsupported file type")
)

// Store keeps parcel evidence images on local disk under baseDir and serves
// them by urlPrefix. Save file -> return URL; delete maps the URL back to the
// path.
type Store struct {
	baseDir   string
	urlPrefix string
	loggerf   func(format string, args ...interface{})
}

func NewStore(baseDir, urlPrefix string, loggerf func(format string, args ...interface{})) *Store {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Store{baseDir: baseDir, urlPrefix: strings.TrimSuffix(urlPrefix, "/"), loggerf: loggerf}
}

// BaseDir is the directory to expose through the static file route.
func (s *Store) BaseDir() string { return s.baseDir }

// URLPrefix is the public route prefix matching BaseDir.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// Save writes the uploaded image to disk and returns its public URL.
func (s *Store) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size == 0 {
		return "", ErrEmptyFile
	}
	if fileHeader.Size > maxFileSize {
		return "", ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	// MIME sniffing from the first 512 bytes
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]
	if !allowedMimeTypes[mimeType] {
		return "", ErrInvalidMimeType
	}
	if seeker, ok := file.(io.Seeker); ok {
		_, _ = seeker.Seek(0, io.SeekStart)
	}

	now := time.Now()
	relDir := fmt.Sprintf("%d/%02d/%02d", now.Year(), now.Month(), now.Day())
	absDir := filepath.Join(s.baseDir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	ext := filepath.Ext(fileHeader.Filename)
	filename := uuid.New().String() + ext
	absPath := filepath.Join(absDir, filename)

	dst, err := os.Create(absPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(absPath)
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.urlPrefix + "/" + relDir + "/" + filename, nil
}

// DeleteImages removes the files behind the given URLs. URLs outside this
// store's prefix are skipped. Individual failures are logged and the rest
// still run; the first error is returned for the caller's log line.
func (s *Store) DeleteImages(ctx context.Context, urls []string) error {
	var firstErr error
	for _, u := range urls {
		rel, ok := strings.CutPrefix(u, s.urlPrefix+"/")
		if !ok {
			continue
		}
		rel = filepath.Clean(rel)
		if rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		path := filepath.Join(s.baseDir, rel)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.loggerf("level=error msg=image delete failed path=%s err=%v", path, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
