package ports

// FileSystem is the file access used for inputs (Lottie documents, PNG
// sequence directories), the output APNG and debug dumps. Paths are
// slash-or-OS separated as given; implementations do not resolve them.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path atomically where the platform allows it.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error
	Exists(path string) (bool, error)
	IsDir(path string) (bool, error)

	// ReadDir lists regular file names in path, sorted by name.
	ReadDir(path string) ([]string, error)

	// Remove deletes a file or an empty directory.
	Remove(path string) error
}
