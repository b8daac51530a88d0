package filestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func newTestStore(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := NewLocal(dir)
	require.NoError(t, err)
	return New(backend, opts), dir
}

func pdfUpload(field string, data []byte) Upload {
	return Upload{
		Field:       field,
		Filename:    "marks.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// =============================================================================
// Save / Open / Remove
// =============================================================================

func TestSaveAndOpen(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	ctx := context.Background()

	name, err := store.Save(ctx, pdfUpload("ssc_doc", samplePDF))
	require.NoError(t, err)
	assert.True(t, ValidName(name), name)
	assert.True(t, strings.HasPrefix(name, "ssc_doc-"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotContains(t, name, dir)

	obj, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, got)
	assert.EqualValues(t, len(samplePDF), obj.Size)
}

func TestSaveRejectsDeclaredNonPDF(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	u := pdfUpload("ssc_doc", samplePDF)
	u.ContentType = "image/png"

	_, err := store.Save(context.Background(), u)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestSaveAcceptsContentTypeParameters(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	u := pdfUpload("ssc_doc", samplePDF)
	u.ContentType = "application/pdf; name=marks.pdf"

	_, err := store.Save(context.Background(), u)
	assert.NoError(t, err)
}

func TestSaveRejectsSniffedNonPDF(t *testing.T) {
	store, dir := newTestStore(t, Options{})

	_, err := store.Save(context.Background(), pdfUpload("ssc_doc", []byte("just some text pretending")))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestSaveRejectsOversizeDeclared(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	u := pdfUpload("graduation_doc", samplePDF)
	u.Size = 6 << 20

	err := store.Check(u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 MiB")

	_, err = store.Save(context.Background(), u)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestSaveRejectsOversizeBodyWithUnknownSize(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	data := append(append([]byte{}, samplePDF...), bytes.Repeat([]byte{'0'}, 6<<20)...)
	u := pdfUpload("graduation_doc", data)
	u.Size = -1

	_, err := store.Save(context.Background(), u)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestSaveRejectsEmpty(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	_, err := store.Save(context.Background(), pdfUpload("ssc_doc", nil))
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
}

func TestSaveStrictPDFRejectsUnparseable(t *testing.T) {
	store, dir := newTestStore(t, Options{StrictPDF: true})

	_, err := store.Save(context.Background(), pdfUpload("ssc_doc", []byte("%PDF-1.4 but nothing else")))
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestConcurrentIdenticalUploadsGetDistinctNames(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	fixed := time.UnixMilli(1700000000000)
	store.now = func() time.Time { return fixed }

	const n = 16
	names := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name, err := store.Save(context.Background(), pdfUpload("ssc_doc", samplePDF))
			assert.NoError(t, err)
			names[i] = name
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Len(t, dirEntries(t, dir), n)
}

func TestOpenMissing(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	name := store.NewName("ssc_doc", "x.pdf")

	_, err := store.Open(context.Background(), name)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	secret := filepath.Join(filepath.Dir(dir), "secret.pdf")
	require.NoError(t, os.WriteFile(secret, samplePDF, 0o600))

	for _, name := range []string{"../secret.pdf", "..%2Fsecret.pdf", "/etc/passwd", "", "secret.pdf"} {
		_, err := store.Open(context.Background(), name)
		assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err), name)
	}
}

func TestRemove(t *testing.T) {
	store, dir := newTestStore(t, Options{})
	ctx := context.Background()
	name, err := store.Save(ctx, pdfUpload("offerLetter", samplePDF))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "offerletter-"))

	require.NoError(t, store.Remove(ctx, name))
	assert.Empty(t, dirEntries(t, dir))
	// removing twice is fine
	assert.NoError(t, store.Remove(ctx, name))
	assert.Error(t, store.Remove(ctx, "../escape.pdf"))
}

// =============================================================================
// Names
// =============================================================================

func TestNewNameShape(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	store.now = func() time.Time { return time.UnixMilli(1700000000123) }

	tests := []struct {
		field, original, prefix, ext string
	}{
		{"ssc_doc", "Marks Memo.PDF", "ssc_doc-1700000000123-", ".pdf"},
		{"additional_files", "cert", "additional_files-1700000000123-", ".pdf"},
		{"../../x", "a.p/df", "x-1700000000123-", ".pdf"},
		{"", "a.pdf", "file-1700000000123-", ".pdf"},
	}
	for _, tt := range tests {
		name := store.NewName(tt.field, tt.original)
		assert.True(t, strings.HasPrefix(name, tt.prefix), name)
		assert.True(t, strings.HasSuffix(name, tt.ext), name)
		assert.True(t, ValidName(name), name)
	}
}

func TestNewNameNeverRepeats(t *testing.T) {
	store, _ := newTestStore(t, Options{})
	assert.NotEqual(t, store.NewName("ssc_doc", "a.pdf"), store.NewName("ssc_doc", "a.pdf"))
}

// =============================================================================
// Backends
// =============================================================================

func TestLocalBackendRefusesOverwrite(t *testing.T) {
	backend, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "a.pdf", bytes.NewReader(samplePDF), int64(len(samplePDF)), PDFContentType))
	assert.Error(t, backend.Put(ctx, "a.pdf", bytes.NewReader(samplePDF), int64(len(samplePDF)), PDFContentType))
	assert.True(t, errors.Is(backend.Delete(ctx, "missing.pdf"), ErrNotExist))
	_, err = backend.Get(ctx, "missing.pdf")
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestObjectBackendKeysAndErrors(t *testing.T) {
	backend, err := NewObject(ObjectConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "offerdesk",
		Prefix:    "documents/",
	})
	require.NoError(t, err)
	assert.Equal(t, "documents/ssc_doc-1-abc.pdf", backend.key("ssc_doc-1-abc.pdf"))

	assert.True(t, isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNoSuchKey(errors.New("dial tcp: refused")))
}
