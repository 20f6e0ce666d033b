package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubArchiveStorageUpload(t *testing.T) {
	stub := NewStubArchiveStorage()

	key, err := stub.UploadArchive(context.Background(), []byte(`{"collections":{}}`))
	require.NoError(t, err)
	require.NotEmpty(t, key)

	archive, ok := stub.Archive(key)
	assert.True(t, ok)
	assert.JSONEq(t, `{"collections":{}}`, string(archive))
}

func TestStubArchiveStorageRejectsEmptyPayload(t *testing.T) {
	stub := NewStubArchiveStorage()

	_, err := stub.UploadArchive(context.Background(), nil)
	assert.Error(t, err)
}

func TestStubArchiveStorageKeysAreUnique(t *testing.T) {
	stub := NewStubArchiveStorage()

	k1, err := stub.UploadArchive(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	k2, err := stub.UploadArchive(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}
