// Package assets serves plant images from a local directory and issues
// time-limited signed download URLs for them.
package assets

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultURLTTL is the lifetime of a signed URL.
const DefaultURLTTL = 15 * time.Minute

var (
	// ErrInvalidKey is returned for keys that are empty or escape the root.
	ErrInvalidKey = errors.New("invalid object key")

	ErrObjectNotFound = errors.New("object not found")

	// ErrBadSignature is returned by Verify for tampered or expired URLs.
	ErrBadSignature = errors.New("bad or expired signature")
)

// DirStore is an object store whose objects are files under Root.
type DirStore struct {
	root    string
	baseURL string
	key     []byte
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a DirStore.
type Option func(*DirStore)

// WithSigning makes DownloadURL return signed URLs under baseURL.
func WithSigning(baseURL string, key []byte, ttl time.Duration) Option {
	return func(d *DirStore) {
		d.baseURL = strings.TrimRight(baseURL, "/")
		d.key = key
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *DirStore) { d.now = now }
}

// NewDirStore returns a store rooted at root.
func NewDirStore(root string, opts ...Option) (*DirStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("dir store: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("dir store: resolve root: %w", err)
	}
	d := &DirStore{root: abs, ttl: DefaultURLTTL, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if d.baseURL != "" && len(d.key) == 0 {
		return nil, fmt.Errorf("dir store: signing requires a key")
	}
	return d, nil
}

// Root returns the absolute directory holding the objects.
func (d *DirStore) Root() string { return d.root }

// Path maps an object key to its file path.
func (d *DirStore) Path(key string) (string, error) {
	key = strings.TrimSpace(key)
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "", fmt.Errorf("%q: %w", key, ErrInvalidKey)
		}
	}
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return filepath.Join(d.root, filepath.FromSlash(clean[1:])), nil
}

// DownloadURL returns a URL for the object at key. Missing objects fail with
// ErrObjectNotFound.
func (d *DirStore) DownloadURL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := d.Path(key)
	if err != nil {
		return "", fmt.Errorf("download url: %w", err)
	}
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("download url: %s: %w", key, ErrObjectNotFound)
		}
		return "", fmt.Errorf("download url: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("download url: %s is a directory: %w", key, ErrObjectNotFound)
	}

	if d.baseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
	}

	expires := d.now().Add(d.ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("sig", d.sign(key, expires))
	return d.baseURL + "/" + strings.TrimLeft(key, "/") + "?" + q.Encode(), nil
}

// Verify checks a signature produced by DownloadURL.
func (d *DirStore) Verify(key string, expires int64, sig string) error {
	if len(d.key) == 0 {
		return fmt.Errorf("verify: store does not sign urls")
	}
	if d.now().Unix() > expires {
		return fmt.Errorf("verify: expired at %d: %w", expires, ErrBadSignature)
	}
	if !hmac.Equal([]byte(sig), []byte(d.sign(key, expires))) {
		return fmt.Errorf("verify: %w", ErrBadSignature)
	}
	return nil
}

func (d *DirStore) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, d.key)
	mac.Write([]byte(strings.TrimLeft(key, "/") + "|" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
