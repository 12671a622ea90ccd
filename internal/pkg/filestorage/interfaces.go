package filestorage

// FileStorage defines the interface for artifact storage
type FileStorage interface {
	// SaveBytes writes data under subPath and returns the public URL or path of the file.
	// An empty name gets a generated unique name; ext is appended either way.
	SaveBytes(subPath, name, ext string, data []byte) (string, error)

	// DeleteFile removes a file given the URL returned by SaveBytes
	DeleteFile(fileURL string) error

	// GetFullPath returns the filesystem path for a URL returned by SaveBytes
	GetFullPath(fileURL string) string
}
