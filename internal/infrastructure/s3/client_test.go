package s3infra

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPutAPI struct {
	mock.Mock
	body []byte
}

func (m *mockPutAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.body, _ = io.ReadAll(in.Body)
	args := m.Called(*in.Bucket, *in.Key, *in.ContentType)
	return &s3.PutObjectOutput{}, args.Error(0)
}

func TestPutJSON(t *testing.T) {
	api := &mockPutAPI{}
	api.On("PutObject", "archive", "portfolio/x.json", "application/json").Return(nil)

	url, err := NewArchive(api, "archive").PutJSON(context.Background(), "portfolio/x.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "s3://archive/portfolio/x.json", url)
	assert.JSONEq(t, `{"a":1}`, string(api.body))
}

func TestPutJSON_Error(t *testing.T) {
	api := &mockPutAPI{}
	api.On("PutObject", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("AccessDenied"))

	_, err := NewArchive(api, "archive").PutJSON(context.Background(), "k", nil)
	assert.ErrorContains(t, err, "AccessDenied")
}
