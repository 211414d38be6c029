package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"

	models "github.com/phillip/chama-tracker-go/models"
)

// File keeps data.json at an afs location: a local path or any URL afs understands (file://, mem://, s3://, gs://).
type File struct {
	fs  afs.Service
	url string
}

func NewFile(location string) (*File, error) {
	if !strings.Contains(location, "://") {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, fmt.Errorf("resolve data file %q: %w", location, err)
		}
		location = abs
	}
	return &File{fs: afs.New(), url: location}, nil
}

func (f *File) Name() string { return "file" }

func (f *File) Load(ctx context.Context) (*Snapshot, error) {
	data, found, err := f.read(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return emptySnapshot(), nil
	}
	return snapshotFrom(data)
}

func (f *File) Save(ctx context.Context, doc *models.Document, expectedSHA string) (string, error) {
	current, found, err := f.read(ctx)
	if err != nil {
		return "", err
	}
	currentSHA := ""
	if found {
		currentSHA = ContentSHA(current)
	}
	if currentSHA != expectedSHA {
		return "", ErrConflict
	}

	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	if err := f.fs.Upload(ctx, f.url, 0644, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write %s: %w", f.url, err)
	}
	return ContentSHA(data), nil
}

func (f *File) List(ctx context.Context) ([]FileInfo, error) {
	parent := f.url
	if i := strings.LastIndex(parent, "/"); i > 0 {
		parent = parent[:i]
	}
	objects, err := f.fs.List(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", parent, err)
	}
	files := make([]FileInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Name:    obj.Name(),
			Path:    obj.URL(),
			Size:    obj.Size(),
			ModTime: obj.ModTime(),
		})
	}
	return files, nil
}

func (f *File) read(ctx context.Context) ([]byte, bool, error) {
	ok, err := f.fs.Exists(ctx, f.url)
	if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", f.url, err)
	}
	if !ok {
		return nil, false, nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.url)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", f.url, err)
	}
	return data, true, nil
}
