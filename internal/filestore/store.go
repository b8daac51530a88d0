// Package filestore persists uploaded PDF documents under opaque stored names.
//
// A stored name is the only handle the rest of the system sees. Open and
// Remove refuse any name that does not have the generated shape, so a client
// supplied name can never resolve to a path outside the storage root.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/OfferDesk/internal/apperror"
	pdfutil "github.com/dharsanguruparan/OfferDesk/internal/pdf"
)

// PDFContentType is the only accepted media type.
const PDFContentType = "application/pdf"

// DefaultMaxSize is the per-file cap (5 MiB).
const DefaultMaxSize = 5 << 20

// ErrNotExist is returned by backends when a stored name has no object.
var ErrNotExist = errors.New("stored file does not exist")

var storedNamePattern = regexp.MustCompile(`^[a-z0-9_]+-[0-9]+-[0-9a-f]{32}\.[a-z0-9]{1,8}$`)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Backend is where stored files physically live.
type Backend interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) (*Object, error)
	Delete(ctx context.Context, name string) error
}

// Object is an opened stored file. Callers must close Body.
type Object struct {
	Body    io.ReadCloser
	Size    int64
	ModTime time.Time
}

// Upload describes one incoming file part.
type Upload struct {
	// Field is the form field the file arrived in, e.g. ssc_doc.
	Field    string
	Filename string
	// ContentType is the type declared by the client.
	ContentType string
	// Size is the declared size, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Options tunes a Store.
type Options struct {
	MaxSize int64
	// StrictPDF additionally requires uploads to parse as a PDF with pages.
	StrictPDF bool
}

// Store validates uploads and hands them to a Backend.
type Store struct {
	backend   Backend
	maxSize   int64
	strictPDF bool
	now       func() time.Time
}

// New builds a Store over backend.
func New(backend Backend, opts Options) *Store {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	return &Store{
		backend:   backend,
		maxSize:   opts.MaxSize,
		strictPDF: opts.StrictPDF,
		now:       time.Now,
	}
}

// MaxSize reports the per-file cap in bytes.
func (s *Store) MaxSize() int64 { return s.maxSize }

// Check rejects an upload on its declared metadata alone.
func (s *Store) Check(u Upload) error {
	if !isPDFType(u.ContentType) {
		return apperror.InvalidArgument(fmt.Sprintf("%s must be a PDF file", u.Field))
	}
	if u.Size > s.maxSize {
		return apperror.InvalidArgument(fmt.Sprintf("%s exceeds the %s size limit", u.Field, formatSize(s.maxSize)))
	}
	return nil
}

// Save validates the upload content and persists it, returning the stored name.
// Nothing is written unless every check passes.
func (s *Store) Save(ctx context.Context, u Upload) (string, error) {
	if err := s.Check(u); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	// Read one byte past the cap so oversize bodies are detected without
	// trusting the declared size.
	n, err := io.Copy(&buf, io.LimitReader(u.Body, s.maxSize+1))
	if err != nil {
		return "", apperror.Internal("read upload", err)
	}
	if n > s.maxSize {
		return "", apperror.InvalidArgument(fmt.Sprintf("%s exceeds the %s size limit", u.Field, formatSize(s.maxSize)))
	}
	if n == 0 {
		return "", apperror.InvalidArgument(fmt.Sprintf("%s is empty", u.Field))
	}
	data := buf.Bytes()
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	if http.DetectContentType(sniff) != PDFContentType {
		return "", apperror.InvalidArgument(fmt.Sprintf("%s must be a PDF file", u.Field))
	}
	if s.strictPDF {
		if _, err := pdfutil.Inspect(data); err != nil {
			return "", apperror.New(apperror.CodeInvalidArgument, fmt.Sprintf("%s is not a readable PDF", u.Field), err)
		}
	}
	name := s.NewName(u.Field, u.Filename)
	if err := s.backend.Put(ctx, name, bytes.NewReader(data), n, PDFContentType); err != nil {
		return "", apperror.Internal("store file", err)
	}
	return name, nil
}

// Open returns the stored file for name.
func (s *Store) Open(ctx context.Context, name string) (*Object, error) {
	if !ValidName(name) {
		return nil, apperror.NotFound("file not found")
	}
	obj, err := s.backend.Get(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, apperror.NotFound("file not found")
		}
		return nil, apperror.Internal("open file", err)
	}
	return obj, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return apperror.InvalidArgument("invalid stored name")
	}
	if err := s.backend.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotExist) {
		return apperror.Internal("remove file", err)
	}
	return nil
}

// NewName builds a stored name from the form field and original filename.
// Two calls never return the same name: the random part is a v4 UUID.
func (s *Store) NewName(field, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !extPattern.MatchString(ext) {
		ext = ".pdf"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return sanitizeField(field) + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + id + ext
}

// ValidName reports whether name has the shape NewName produces.
func ValidName(name string) bool {
	return storedNamePattern.MatchString(name)
}

func sanitizeField(field string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(field) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

func isPDFType(declared string) bool {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return mediaType == PDFContentType
}

func formatSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%d MiB", n>>20)
	}
	return fmt.Sprintf("%d byte", n)
}
