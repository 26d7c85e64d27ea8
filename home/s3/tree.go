package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/webdesk/data"
	"github.com/mwantia/webdesk/home"
)

const directoryContentType = "application/x-directory"

// S3Tree stores homes in an S3 compatible bucket. Directories are zero-byte
// objects whose key ends in a slash.
type S3Tree struct {
	mu         sync.RWMutex
	client     *minio.Client
	bucketName string
	region     string
}

var _ home.Tree = (*S3Tree)(nil)

// S3TreeConfig contains connection options for the bucket
type S3TreeConfig struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewS3Tree(config S3TreeConfig) (*S3Tree, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Tree{
		client:     client,
		bucketName: config.Bucket,
		region:     config.Region,
	}, nil
}

// Name returns the identifier name defined for this tree
func (*S3Tree) Name() string {
	return "s3"
}

// Open creates the bucket when it does not exist yet.
func (st *S3Tree) Open(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	exists, err := st.client.BucketExists(ctx, st.bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return st.client.MakeBucket(ctx, st.bucketName, minio.MakeBucketOptions{Region: st.region})
}

func (st *S3Tree) Close(_ context.Context) error {
	return nil
}

// objectKey converts a cleaned tree path into a bucket key without the leading slash.
func objectKey(p string) (string, string, error) {
	clean, err := home.CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return clean, strings.TrimPrefix(clean, "/"), nil
}

func dirKey(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// stat resolves key as a file first and as a directory marker second. Callers hold mu.
func (st *S3Tree) stat(ctx context.Context, clean, key string) (*data.Entry, error) {
	if key == "" {
		return data.NewEntry("/", data.DefaultDirMode, 0, time.Time{}), nil
	}

	info, err := st.client.StatObject(ctx, st.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return data.NewEntry(clean, data.DefaultFileMode, info.Size, info.LastModified), nil
	}
	if !isNoSuchKey(err) {
		return nil, err
	}

	info, err = st.client.StatObject(ctx, st.bucketName, dirKey(key), minio.StatObjectOptions{})
	if err == nil {
		return data.NewEntry(clean, data.DefaultDirMode, 0, info.LastModified), nil
	}
	if isNoSuchKey(err) {
		return nil, data.ErrNotExist
	}
	return nil, err
}

func (st *S3Tree) Stat(ctx context.Context, p string) (*data.Entry, error) {
	clean, key, err := objectKey(p)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	return st.stat(ctx, clean, key)
}

func (st *S3Tree) List(ctx context.Context, p string) ([]*data.Entry, error) {
	clean, key, err := objectKey(p)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	entry, err := st.stat(ctx, clean, key)
	if err != nil {
		return nil, err
	}
	if !entry.IsDir() {
		return nil, data.ErrNotDirectory
	}

	prefix := dirKey(key)
	objectsCh := st.client.ListObjects(ctx, st.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	seen := make(map[string]struct{})
	entries := make([]*data.Entry, 0)
	for object := range objectsCh {
		if object.Err != nil {
			return nil, object.Err
		}
		if object.Key == prefix {
			continue
		}

		rel := strings.TrimPrefix(object.Key, prefix)
		name := strings.TrimSuffix(rel, "/")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		child := "/" + prefix + name
		if strings.HasSuffix(rel, "/") {
			entries = append(entries, data.NewEntry(child, data.DefaultDirMode, 0, object.LastModified))
		} else {
			entries = append(entries, data.NewEntry(child, data.DefaultFileMode, object.Size, object.LastModified))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (st *S3Tree) MakeDir(ctx context.Context, p string) error {
	clean, key, err := objectKey(p)
	if err != nil {
		return err
	}
	if key == "" {
		return data.ErrExist
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.checkParent(ctx, clean); err != nil {
		return err
	}
	if _, err := st.stat(ctx, clean, key); err == nil {
		return data.ErrExist
	} else if !errors.Is(err, data.ErrNotExist) {
		return err
	}

	_, err = st.client.PutObject(ctx, st.bucketName, dirKey(key), bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: directoryContentType,
	})
	return err
}

func (st *S3Tree) Remove(ctx context.Context, p string, recursive bool) error {
	clean, key, err := objectKey(p)
	if err != nil {
		return err
	}
	if key == "" {
		return data.ErrInvalidPath
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	entry, err := st.stat(ctx, clean, key)
	if err != nil {
		return err
	}
	if !entry.IsDir() {
		return st.client.RemoveObject(ctx, st.bucketName, key, minio.RemoveObjectOptions{})
	}

	prefix := dirKey(key)
	objectsCh := st.client.ListObjects(ctx, st.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var keys []string
	for object := range objectsCh {
		if object.Err != nil {
			return object.Err
		}
		if object.Key != prefix {
			keys = append(keys, object.Key)
		}
	}
	if len(keys) > 0 && !recursive {
		return data.ErrDirectoryNotEmpty
	}

	errs := data.Errors{}
	for _, k := range append(keys, prefix) {
		if err := st.client.RemoveObject(ctx, st.bucketName, k, minio.RemoveObjectOptions{}); err != nil {
			errs.Add(err)
		}
	}
	return errs.Errors()
}

func (st *S3Tree) ReadFile(ctx context.Context, p string) ([]byte, error) {
	clean, key, err := objectKey(p)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	entry, err := st.stat(ctx, clean, key)
	if err != nil {
		return nil, err
	}
	if entry.IsDir() {
		return nil, data.ErrIsDirectory
	}

	object, err := st.client.GetObject(ctx, st.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	return io.ReadAll(object)
}

func (st *S3Tree) WriteFile(ctx context.Context, p string, content []byte) error {
	clean, key, err := objectKey(p)
	if err != nil {
		return err
	}
	if key == "" {
		return data.ErrIsDirectory
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.checkParent(ctx, clean); err != nil {
		return err
	}
	if entry, err := st.stat(ctx, clean, key); err == nil && entry.IsDir() {
		return data.ErrIsDirectory
	}

	_, err = st.client.PutObject(ctx, st.bucketName, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	return err
}

func (st *S3Tree) Usage(ctx context.Context, p string) (int64, error) {
	clean, key, err := objectKey(p)
	if err != nil {
		return 0, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	entry, err := st.stat(ctx, clean, key)
	if err != nil {
		return 0, err
	}
	if !entry.IsDir() {
		return entry.Size, nil
	}

	var total int64
	objectsCh := st.client.ListObjects(ctx, st.bucketName, minio.ListObjectsOptions{
		Prefix:    dirKey(key),
		Recursive: true,
	})
	for object := range objectsCh {
		if object.Err != nil {
			return 0, object.Err
		}
		total += object.Size
	}
	return total, nil
}

// checkParent requires the parent of clean to exist as a directory. Callers hold mu.
func (st *S3Tree) checkParent(ctx context.Context, clean string) error {
	parent := home.Parent(clean)
	entry, err := st.stat(ctx, parent, strings.TrimPrefix(parent, "/"))
	if err != nil {
		return err
	}
	if !entry.IsDir() {
		return data.ErrNotDirectory
	}
	return nil
}
