package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/nearest/blobstore"
	"github.com/hupe1980/nearest/blobstore/minio"
	"github.com/hupe1980/nearest/blobstore/s3"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")
	ErrInvalidURI        = errors.New("invalid URI")
)

// Resolve maps a location to the store holding it and the blob name inside
// that store. Accepted forms:
//
//	path/to/file.npt             local file
//	file:///abs/path/file.npt    local file
//	s3://bucket/key/file.npt     AWS S3 (or NEAREST_S3_ENDPOINT)
//	minio://host:port/bucket/key MinIO; an empty host uses NEAREST_MINIO_ENDPOINT
func Resolve(ctx context.Context, uri string, cfg Config) (blobstore.BlobStore, string, error) {
	if uri == "" {
		return nil, "", fmt.Errorf("%w: empty location", ErrInvalidURI)
	}
	if !strings.Contains(uri, "://") {
		return localLocation(uri)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}

	switch u.Scheme {
	case "file":
		return localLocation(u.Host + u.Path)
	case "s3":
		if u.Host == "" {
			return nil, "", fmt.Errorf("%w: %s: missing bucket", ErrInvalidURI, uri)
		}
		prefix, name, err := splitKey(uri, u.Path)
		if err != nil {
			return nil, "", err
		}
		store, err := s3.New(ctx, u.Host,
			s3.WithPrefix(prefix),
			s3.WithRegion(cfg.S3Region),
			s3.WithEndpoint(cfg.S3Endpoint),
		)
		if err != nil {
			return nil, "", err
		}
		return store, name, nil
	case "minio":
		bucket, key, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if bucket == "" {
			return nil, "", fmt.Errorf("%w: %s: missing bucket", ErrInvalidURI, uri)
		}
		prefix, name, err := splitKey(uri, key)
		if err != nil {
			return nil, "", err
		}
		mc := cfg.MinIO
		if u.Host != "" {
			mc.Endpoint = u.Host
		}
		store, err := minio.New(mc, bucket, prefix)
		if err != nil {
			return nil, "", err
		}
		return store, name, nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func localLocation(p string) (blobstore.BlobStore, string, error) {
	if p == "" || strings.HasSuffix(p, "/") {
		return nil, "", fmt.Errorf("%w: %q names a directory", ErrInvalidURI, p)
	}
	p = filepath.Clean(p)
	return blobstore.NewLocalStore(filepath.Dir(p)), filepath.Base(p), nil
}

func splitKey(uri, key string) (prefix, name string, err error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%w: %s: missing object name", ErrInvalidURI, uri)
	}
	prefix, name = path.Split(key)
	return strings.TrimSuffix(prefix, "/"), name, nil
}
