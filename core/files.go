package core

// FileStore is any service that can store uploaded documents and serve them
// back by key.
type FileStore interface {
	// Upload validates and stores data under a logical prefix and returns a
	// stable storage key. It returns a *ValidationError for an empty, oversize
	// or wrong-type payload and a *StorageError on transport failure.
	Upload(data []byte, filename, prefix string) (key string, err error)

	// URL returns a retrieval URL for a previously returned key.
	URL(key string) string
}
