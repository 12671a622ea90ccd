package filestorage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yigit/lms/internal/pkg/logger"
)

// PublicPrefix is the URL path the API serves stored files under
const PublicPrefix = "/uploads"

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // root directory on disk
	baseURL  string // optional absolute URL prefix for returned links
}

// NewLocalStorage creates a new LocalStorage instance.
// If baseURL is set, returned links are absolute (baseURL + /uploads/...).
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath returns the storage root, used to mount the static file route
func (ls *LocalStorage) BasePath() string { return ls.basePath }

// SaveBytes implements FileStorage
func (ls *LocalStorage) SaveBytes(subPath, name, ext string, data []byte) (string, error) {
	subPath = strings.Trim(filepath.ToSlash(filepath.Clean("/"+subPath)), "/")

	fullDirPath := filepath.Join(ls.basePath, filepath.FromSlash(subPath))
	if err := os.MkdirAll(fullDirPath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", fullDirPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	if name == "" {
		name = uuid.NewString()
	}
	filename := filepath.Base(name) + ext
	dstPath := filepath.Join(fullDirPath, filename)

	// Write to a temp file first so readers never see a partial artifact.
	tmp := dstPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to write file")
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := os.Rename(tmp, dstPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	accessiblePath := path.Join(PublicPrefix, subPath, filename)
	if ls.baseURL != "" {
		accessiblePath = ls.baseURL + accessiblePath
	}

	logger.Debug().Str("saved_as", dstPath).Str("accessible_path", accessiblePath).Int("bytes", len(data)).Msg("File saved successfully")
	return accessiblePath, nil
}

// relativePath strips the base URL and public prefix from a returned link
func (ls *LocalStorage) relativePath(fileURL string) string {
	p := strings.TrimPrefix(fileURL, ls.baseURL)
	p = strings.TrimPrefix(p, PublicPrefix)
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// GetFullPath implements FileStorage
func (ls *LocalStorage) GetFullPath(fileURL string) string {
	rel := ls.relativePath(fileURL)
	if rel == "" || rel == "." {
		return ""
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(rel))
}

// DeleteFile implements FileStorage. Deleting a missing file is not an error.
func (ls *LocalStorage) DeleteFile(fileURL string) error {
	if fileURL == "" {
		return nil
	}

	physicalPath := ls.GetFullPath(fileURL)
	if physicalPath == "" {
		return fmt.Errorf("invalid file path: %s", fileURL)
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

var _ FileStorage = (*LocalStorage)(nil)
