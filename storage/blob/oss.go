package blobstore

import (
	"bytes"
	"fmt"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/shiksha/lms/core"
)

// ossStore keeps documents in an Aliyun OSS bucket.
type ossStore struct {
	bucket     *oss.Bucket
	bucketName string
	endpoint   string
}

var _ core.FileStore = (*ossStore)(nil)

func NewOSSStore(conf *core.Config) (*ossStore, error) {
	client, err := oss.New(
		conf.Storage.OSSEndpoint,
		conf.Storage.OSSAccessKeyID,
		conf.Storage.OSSAccessKeySecret,
	)
	if err != nil {
		return nil, core.NewStorageError("connecting to OSS", err)
	}
	bucket, err := client.Bucket(conf.Storage.OSSBucket)
	if err != nil {
		return nil, core.NewStorageError("opening OSS bucket", err)
	}
	return &ossStore{
		bucket:     bucket,
		bucketName: conf.Storage.OSSBucket,
		endpoint:   conf.Storage.OSSEndpoint,
	}, nil
}

func (s *ossStore) Upload(data []byte, filename, prefix string) (string, error) {
	if err := validateFile(data, filename); err != nil {
		return "", err
	}

	key := newFileKey(filename, prefix)
	err := s.bucket.PutObject(key, bytes.NewReader(data), oss.ContentType(pdfContentType))
	if err != nil {
		return "", core.NewStorageError("uploading file", err)
	}
	return key, nil
}

func (s *ossStore) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, s.endpoint, key)
}
