package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// bucketAssetStore writes assets to a Cloud Storage bucket with a download token,
// producing the same URL shape the Firebase console hands out.
type bucketAssetStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	prefix     string
}

// NewBucketAssetStore returns an AssetStore backed by the Firebase Storage bucket.
func NewBucketAssetStore(bucket *storage.BucketHandle, bucketName, prefix string) AssetStore {
	return &bucketAssetStore{bucket: bucket, bucketName: bucketName, prefix: prefix}
}

func (s *bucketAssetStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectName := path.Join(s.prefix, uuid.NewString()+"-"+path.Base(name))
	token := uuid.NewString()

	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write asset %q: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize asset %q: %w", objectName, err)
	}

	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucketName, url.PathEscape(objectName), token), nil
}

type inlineAssetStore struct{}

// NewInlineAssetStore returns an AssetStore that encodes assets as data URLs. It needs
// no backing service and is paired with the memory store.
func NewInlineAssetStore() AssetStore {
	return inlineAssetStore{}
}

func (inlineAssetStore) Put(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
