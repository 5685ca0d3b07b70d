package blobstore

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/shiksha/lms/core"
)

// localStore keeps documents on the local filesystem; meant for DEV and tests.
type localStore struct {
	root    string
	baseURL string
}

var _ core.FileStore = (*localStore)(nil)

func NewLocalStore(root string) *localStore {
	return &localStore{
		root:    root,
		baseURL: core.Conf.FrontendBaseURL + "/media",
	}
}

func (s *localStore) Upload(data []byte, filename, prefix string) (string, error) {
	if err := validateFile(data, filename); err != nil {
		return "", err
	}

	key := newFileKey(filename, prefix)
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", core.NewStorageError("creating media dir", err)
	}
	if err := ioutil.WriteFile(path, data, 0o644); err != nil {
		return "", core.NewStorageError("writing file", err)
	}
	return key, nil
}

func (s *localStore) URL(key string) string {
	return s.baseURL + "/" + key
}
