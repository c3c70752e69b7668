package storage

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	pages  [][]types.Object
	copies []s3.CopyObjectInput
	calls  int
}

func (f *fakeObjectAPI) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.pages[f.calls]
	f.calls++
	out := &s3.ListObjectsV2Output{Contents: page}
	if f.calls < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeObjectAPI) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copies = append(f.copies, *params)
	return &s3.CopyObjectOutput{}, nil
}

type fakePresigner struct {
	lastKey string
}

func (f *fakePresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.lastKey = aws.ToString(params.Key)
	return &v4.PresignedHTTPRequest{
		URL: "https://media.example.com/" + f.lastKey + "?signature=abc",
	}, nil
}

func TestPlaybackURL(t *testing.T) {
	presigner := &fakePresigner{}
	media := NewMediaWithClients(&fakeObjectAPI{}, presigner, "acameria", time.Hour)

	got, err := media.PlaybackURL(context.Background(), "courses/go/01/master.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/courses/go/01/master.m3u8?signature=abc", got)
	assert.Equal(t, "courses/go/01/master.m3u8", presigner.lastKey)

	// Absolute URLs pass through, empty refs stay empty.
	got, err = media.PlaybackURL(context.Background(), "https://cdn.example.com/legacy.m3u8")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/legacy.m3u8", got)

	got, err = media.PlaybackURL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFixMIMETypes(t *testing.T) {
	obj := func(key string) types.Object { return types.Object{Key: aws.String(key)} }
	client := &fakeObjectAPI{
		pages: [][]types.Object{
			{obj("courses/go/01/seg-000.ts"), obj("courses/go/01/master.m3u8")},
			{obj("courses/go/02/seg-001.ts"), obj("courses/go/thumb.png")},
		},
	}
	media := NewMediaWithClients(client, &fakePresigner{}, "acameria", time.Hour)

	fixed, err := media.FixMIMETypes(context.Background(), "courses/")
	require.NoError(t, err)
	assert.Equal(t, 2, fixed)
	assert.Equal(t, 2, client.calls)

	require.Len(t, client.copies, 2)
	first := client.copies[0]
	assert.Equal(t, "acameria", aws.ToString(first.Bucket))
	assert.Equal(t, "courses/go/01/seg-000.ts", aws.ToString(first.Key))
	assert.Equal(t, "acameria/courses%2Fgo%2F01%2Fseg-000.ts", aws.ToString(first.CopySource))
	assert.Equal(t, "video/mp2t", aws.ToString(first.ContentType))
	assert.Equal(t, types.MetadataDirectiveReplace, first.MetadataDirective)
}
