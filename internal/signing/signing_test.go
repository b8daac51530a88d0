package signing

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	sig := s.Sign("offerletter-1-abc.pdf", 1700000600)
	require.NotEmpty(t, sig)
	assert.Len(t, sig, 64)

	assert.True(t, s.Validate("offerletter-1-abc.pdf", "1700000600", sig))
	assert.False(t, s.Validate("other.pdf", "1700000600", sig), "wrong name")
	assert.False(t, s.Validate("offerletter-1-abc.pdf", "1700000601", sig), "wrong expiry")
	assert.False(t, s.Validate("offerletter-1-abc.pdf", "soon", sig), "malformed expiry")
	assert.False(t, s.Validate("offerletter-1-abc.pdf", "1700000600", ""), "missing signature")
}

func TestSignerRejectsExpired(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	sig := s.Sign("a.pdf", 1699999999)

	assert.False(t, s.Validate("a.pdf", "1699999999", sig))
}

func TestSignerSecretsDiffer(t *testing.T) {
	a := NewSigner([]byte("one"))
	b := NewSigner([]byte("two"))
	assert.NotEqual(t, a.Sign("a.pdf", 1), b.Sign("a.pdf", 1))
}

func TestURL(t *testing.T) {
	s := NewSigner([]byte("topsecret"))
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	link := s.URL("/api/files/", "offerletter-1-abc.pdf", 15*time.Minute)
	require.True(t, strings.HasPrefix(link, "/api/files/offerletter-1-abc.pdf?"), link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, strconv.FormatInt(now.Add(15*time.Minute).Unix(), 10), q.Get(ParamExpires))
	assert.True(t, s.Validate("offerletter-1-abc.pdf", q.Get(ParamExpires), q.Get(ParamSignature)))
}
