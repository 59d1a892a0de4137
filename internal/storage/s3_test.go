package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu        sync.Mutex
	parts     map[int32][]byte
	completed int
	aborted   int
	deleted   []string
	objects   map[string][]byte
	failPart  int32
}

func newFakeS3() *fakeS3 {
	return &fakeS3{parts: map[int32][]byte{}, objects: map[string][]byte{}}
}

func (f *fakeS3) CreateMultipartUpload(_ context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1"), Key: in.Key}, nil
}

func (f *fakeS3) UploadPart(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	n := aws.ToInt32(in.PartNumber)
	if f.failPart == n {
		return nil, errors.New("connection reset")
	}
	data, _ := io.ReadAll(in.Body)
	f.mu.Lock()
	f.parts[n] = data
	f.mu.Unlock()
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", n))}, nil
}

func (f *fakeS3) CompleteMultipartUpload(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed++
	var buf bytes.Buffer
	for _, p := range in.MultipartUpload.Parts {
		buf.Write(f.parts[aws.ToInt32(p.PartNumber)])
	}
	f.objects[aws.ToString(in.Key)] = buf.Bytes()
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	f.aborted++
	f.mu.Unlock()
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	return &PresignedRequest{URL: "https://bucket.example.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=x"}, nil
}

func TestS3Store(t *testing.T) {
	t.Run("Multipart Upload With Progress", func(t *testing.T) {
		fake := newFakeS3()
		b := newS3Backend(fake, fakePresigner{}, "clips", minPartSize)

		content := bytes.Repeat([]byte("a"), int(minPartSize*2+10))
		var progress []float64
		ref, err := b.Store(context.Background(), Object{Content: content, ContentType: "video/mp4"}, func(p float64) {
			progress = append(progress, p)
		})
		require.NoError(t, err)

		assert.Equal(t, KindKeyed, ref.Kind)
		assert.True(t, strings.HasPrefix(ref.Value, "videos/"))
		assert.Len(t, fake.parts, 3)
		assert.Equal(t, 1, fake.completed)
		assert.Equal(t, content, fake.objects[ref.Value])

		require.Len(t, progress, 3)
		assert.Equal(t, float64(100), progress[2])
		assert.Less(t, progress[0], progress[1])
	})

	t.Run("Empty Content Uses One Part", func(t *testing.T) {
		fake := newFakeS3()
		b := newS3Backend(fake, fakePresigner{}, "clips", 0)

		_, err := b.Store(context.Background(), Object{}, nil)
		require.NoError(t, err)
		assert.Len(t, fake.parts, 1)
	})

	t.Run("Part Failure Aborts", func(t *testing.T) {
		fake := newFakeS3()
		fake.failPart = 2
		b := newS3Backend(fake, fakePresigner{}, "clips", minPartSize)

		_, err := b.Store(context.Background(), Object{Content: make([]byte, minPartSize+1)}, nil)
		require.Error(t, err)
		assert.True(t, IsUploadError(err))
		assert.Equal(t, 1, fake.aborted)
		assert.Equal(t, 0, fake.completed)
	})
}

func TestS3ResolveOpenRemove(t *testing.T) {
	fake := newFakeS3()
	fake.objects["videos/a"] = []byte("clip")
	b := newS3Backend(fake, fakePresigner{}, "clips", 0)
	ref := Ref{Kind: KindKeyed, Value: "videos/a"}
	ctx := context.Background()

	url, err := b.Resolve(ctx, ref)
	require.NoError(t, err)
	assert.Contains(t, url, "videos/a")

	rc, err := b.Open(ctx, ref)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "clip", string(data))

	require.NoError(t, b.Remove(ctx, ref))
	assert.Equal(t, []string{"videos/a"}, fake.deleted)
}
