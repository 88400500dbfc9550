package registry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRegistryRegisterBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	reg := NewWithStore(store, t.TempDir())

	v, err := reg.Register(ctx, "diabetes_model", writeArtifact(t, "v1"))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = reg.Register(ctx, "diabetes_model", writeArtifact(t, "v2"))
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	latest, err := reg.LatestVersion(ctx, "diabetes_model")
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestRegistryModelPathFetchesLatest(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	reg := NewWithStore(store, t.TempDir())

	_, err = reg.Register(ctx, "diabetes_model", writeArtifact(t, "old"))
	require.NoError(t, err)
	_, err = reg.Register(ctx, "diabetes_model", writeArtifact(t, "new"))
	require.NoError(t, err)

	p, err := reg.ModelPath(ctx, "diabetes_model")
	require.NoError(t, err)
	assert.Equal(t, "2.gob", filepath.Base(p))

	content, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestRegistryModelPathUnknownModel(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	reg := NewWithStore(store, t.TempDir())

	_, err = reg.ModelPath(context.Background(), "no_such_model")
	assert.Error(t, err)
}

func TestRegistryNamesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	reg := NewWithStore(store, t.TempDir())

	_, err = reg.Register(ctx, "diabetes_model", writeArtifact(t, "a"))
	require.NoError(t, err)
	_, err = reg.Register(ctx, "diabetes_model", writeArtifact(t, "b"))
	require.NoError(t, err)

	v, err := reg.Register(ctx, "other_model", writeArtifact(t, "c"))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestRegistryIgnoresForeignKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "diabetes_model/README.txt", strings.NewReader("notes")))
	require.NoError(t, store.Put(ctx, "diabetes_model/3.gob", strings.NewReader("m")))

	reg := NewWithStore(store, t.TempDir())
	latest, err := reg.LatestVersion(ctx, "diabetes_model")
	require.NoError(t, err)
	assert.Equal(t, 3, latest)
}

func TestLocalStoreList(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "a/1.gob", strings.NewReader("x")))
	require.NoError(t, store.Put(ctx, "a/2.gob", strings.NewReader("y")))
	require.NoError(t, store.Put(ctx, "b/1.gob", strings.NewReader("z")))

	keys, err := store.List(ctx, "a/")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a/1.gob", "a/2.gob"}, keys)
}

// fakeS3 is an in-memory stand-in for the S3 API surface the store uses.
type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(ctx aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(body)))}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(ctx aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
			out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k)})
		}
	}
	fn(out, true)
	return nil
}

func TestS3StoreNamesAreIsolated(t *testing.T) {
	// "diabetes_model" must not see versions of "diabetes_model_v2".
	ctx := context.Background()
	store := NewS3StoreWithClient(newFakeS3(), "models", "registry")
	reg := NewWithStore(store, t.TempDir())

	for i := 0; i < 3; i++ {
		_, err := reg.Register(ctx, "diabetes_model_v2", writeArtifact(t, "m"))
		require.NoError(t, err)
	}

	latest, err := reg.LatestVersion(ctx, "diabetes_model")
	require.NoError(t, err)
	assert.Equal(t, 0, latest)

	keys, err := store.List(ctx, "diabetes_model/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewS3StoreWithClient(newFakeS3(), "models", "registry")
	reg := NewWithStore(store, t.TempDir())

	v, err := reg.Register(ctx, "diabetes_model", writeArtifact(t, "payload"))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	p, err := reg.ModelPath(ctx, "diabetes_model")
	require.NoError(t, err)
	content, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}
