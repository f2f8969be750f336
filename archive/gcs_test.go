package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitai/config"
	"kitai/models"
)

type memoryObject struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (o *memoryObject) Close() error {
	o.closed = true
	return o.closeErr
}

func testBucket(obj *memoryObject, names *[]string, onStored func(context.Context, int64) error) *Bucket {
	return &Bucket{
		bucket: "kitai-archive",
		prefix: "resumes",
		newWriter: func(_ context.Context, object string) io.WriteCloser {
			*names = append(*names, object)
			return obj
		},
		onStored: onStored,
	}
}

func TestArchiveWritesJSONObject(t *testing.T) {
	obj := &memoryObject{}
	var names []string
	var stored []int64
	b := testBucket(obj, &names, func(_ context.Context, id int64) error {
		stored = append(stored, id)
		return nil
	})

	rec := &models.ResumeRecord{ID: 12, OrganizationID: "org-1", RequestID: "req-9", Content: "Resumen", SelectedLinks: []string{"https://a"}}
	require.NoError(t, b.Archive(context.Background(), rec))

	assert.Equal(t, []string{"resumes/org-1/req-9.json"}, names)
	assert.True(t, obj.closed)
	assert.Equal(t, []int64{12}, stored)

	var got models.ResumeRecord
	require.NoError(t, json.Unmarshal(obj.Bytes(), &got))
	assert.Equal(t, "Resumen", got.Content)
	assert.Equal(t, []string{"https://a"}, got.SelectedLinks)
}

func TestArchiveCloseFailureSkipsNotification(t *testing.T) {
	obj := &memoryObject{closeErr: errors.New("upload aborted")}
	var names []string
	called := false
	b := testBucket(obj, &names, func(context.Context, int64) error {
		called = true
		return nil
	})

	err := b.Archive(context.Background(), &models.ResumeRecord{ID: 1, OrganizationID: "org-1", RequestID: "r"})
	assert.ErrorContains(t, err, "upload aborted")
	assert.False(t, called)
}

func TestNewWithoutBucket(t *testing.T) {
	var cfg config.Config
	b, err := New(context.Background(), &cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, b)
}
