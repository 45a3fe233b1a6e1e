// Package snpsea holds shared helpers for the snpsea tools: opening
// input files that may live on Google Storage and may be
// gzip-compressed, and reading single-column name lists.
package snpsea

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReadCloser interface {
	io.Reader
	io.Closer
}

// Decorates a Google Storage object handle with io.Reader and io.Closer.
type gsReadCloser struct {
	*storage.ObjectHandle
	Context context.Context
	reader  *storage.Reader
}

func (o *gsReadCloser) Read(p []byte) (n int, err error) {
	if o.reader == nil {
		o.reader, err = o.NewReader(o.Context)
		if err != nil {
			return 0, err
		}
	}

	return o.reader.Read(p)
}

func (o *gsReadCloser) Close() error {
	if o.reader == nil {
		return nil
	}

	return o.reader.Close()
}

// MaybeOpenFromGoogleStorage opens a local file, unless the path starts
// with gs:// and a storage client is provided, in which case it streams
// the object from Google Storage.
func MaybeOpenFromGoogleStorage(path string, client *storage.Client) (ReadCloser, error) {
	if client != nil && strings.HasPrefix(path, "gs://") {
		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
		if len(pathParts) != 2 {
			return nil, fmt.Errorf("tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}
		bucketName := pathParts[0]
		pathName := pathParts[1]

		// Open the bucket with default credentials
		handle := client.Bucket(bucketName).Object(pathName)
		if _, err := handle.Attrs(context.Background()); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return &gsReadCloser{
			ObjectHandle: handle,
			Context:      context.Background(),
		}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}

type gzReadCloser struct {
	raw ReadCloser
	gz  *gzip.Reader
}

func (g *gzReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzReadCloser) Close() error {
	g.gz.Close()

	return g.raw.Close()
}

// Open opens a possibly gzip-compressed input from a local path or
// gs://. If the gzip header is absent, the stream is reopened and read
// as plain text.
func Open(path string, client *storage.Client) (ReadCloser, error) {
	fraw, err := MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(fraw)
	if err != nil {
		// Not gzipped? Close and reopen.
		fraw.Close()
		fraw, err = MaybeOpenFromGoogleStorage(path, client)
		if err != nil {
			return nil, err
		}

		return fraw, nil
	}

	return &gzReadCloser{raw: fraw, gz: gz}, nil
}
