package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"supplierportal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBlobStore struct {
	failOn map[string]error // filename -> error
	stored []string
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, data []byte, filename string) (string, error) {
	if err, ok := f.failOn[filename]; ok {
		return "", err
	}
	f.stored = append(f.stored, key)
	return "https://bucket.s3.sa-east-1.amazonaws.com/" + key, nil
}

func newDocumentFixture() (*fakeSupplierRepo, *fakeBlobStore, DocumentService) {
	suppliers := newFakeSupplierRepo()
	store := &fakeBlobStore{failOn: map[string]error{}}
	counter := 0
	svc := NewDocumentService(suppliers, store, zap.NewNop(), func() string {
		counter++
		return fmt.Sprintf("key%d", counter)
	})
	return suppliers, store, svc
}

func TestUploadStoresDocuments(t *testing.T) {
	suppliers, store, svc := newDocumentFixture()
	s := suppliers.add(reviewableSupplier())

	results, err := svc.Upload(context.Background(), s.ID.String(), []FileUpload{
		{Name: "contrato.pdf", Data: []byte("pdf")},
		{Name: "cartao-cnpj.pdf", Data: []byte("pdf")},
	}, adminActor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Empty(t, r.Error)
		require.NotNil(t, r.Document)
		assert.Equal(t, s.ID, r.Document.SupplierID)
		assert.NotEmpty(t, r.Document.URL)
	}
	assert.Len(t, store.stored, 2)
	assert.Len(t, suppliers.docs, 2)
}

func TestUploadPartialFailure(t *testing.T) {
	suppliers, store, svc := newDocumentFixture()
	s := suppliers.add(reviewableSupplier())
	store.failOn["broken.pdf"] = errors.New("storage unavailable")

	results, err := svc.Upload(context.Background(), s.ID.String(), []FileUpload{
		{Name: "ok.pdf", Data: []byte("pdf")},
		{Name: "broken.pdf", Data: []byte("pdf")},
		{Name: "also-ok.pdf", Data: []byte("pdf")},
	}, adminActor)
	require.NoError(t, err, "per-file failures do not fail the batch")
	require.Len(t, results, 3)

	assert.NotNil(t, results[0].Document)
	assert.Nil(t, results[1].Document)
	assert.Contains(t, results[1].Error, "storage unavailable")
	assert.NotNil(t, results[2].Document)
	assert.Len(t, suppliers.docs, 2, "successful files are kept despite the failure")
}

func TestUploadAuthorization(t *testing.T) {
	suppliers, _, svc := newDocumentFixture()
	s := suppliers.add(reviewableSupplier())
	files := []FileUpload{{Name: "doc.pdf", Data: []byte("pdf")}}

	_, err := svc.Upload(context.Background(), s.ID.String(), files, viewerActor)
	assert.ErrorIs(t, err, ErrForbidden)

	// The original submitter may upload
	_, err = svc.Upload(context.Background(), s.ID.String(), files, staffActor)
	assert.NoError(t, err)

	other := Actor{Email: "other@portal.com", Role: model.RoleUser}
	_, err = svc.Upload(context.Background(), s.ID.String(), files, other)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUploadUnknownSupplier(t *testing.T) {
	_, _, svc := newDocumentFixture()

	_, err := svc.Upload(context.Background(), "2f0c6a39-9e1f-4d52-a27a-111111111111",
		[]FileUpload{{Name: "doc.pdf", Data: []byte("pdf")}}, adminActor)
	assert.ErrorIs(t, err, ErrNotFound)
}
