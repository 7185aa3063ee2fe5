package server_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/cydiarepo/pkg/repo"
	"github.com/thepwagner/cydiarepo/pkg/server"
	"github.com/thepwagner/cydiarepo/pkg/signing"
	"github.com/thepwagner/cydiarepo/pkg/storage"
	"github.com/ulikunitz/xz"
)

const testBaseURL = "https://repo.example"

var (
	iconPNG   = []byte("\x89PNG\r\n\x1a\nicon")
	footerPNG = []byte("\x89PNG\r\n\x1a\nfooter")
	assetTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
)

type TestSource struct {
	releases []repo.Release
	packages []repo.Package
	featured []repo.FeaturedBanner
	err      error
}

func (s TestSource) Releases(context.Context) ([]repo.Release, error) {
	return s.releases, s.err
}

func (s TestSource) VisiblePackages(context.Context) ([]repo.Package, error) {
	return s.packages, s.err
}

func (s TestSource) FeaturedBanners(context.Context) ([]repo.FeaturedBanner, error) {
	return s.featured, s.err
}

func (s TestSource) Ping(context.Context) error {
	return s.err
}

var testSource = TestSource{
	releases: []repo.Release{
		{Origin: "Vapas", Label: "Vapas", Suite: "stable", Version: "1.0", Codename: "ios", Architectures: "iphoneos-arm", Components: "main", Description: "Vapas"},
	},
	packages: []repo.Package{
		{PackageID: "com.foo.bar", Name: "foobar", Version: "1.0", Section: "Tweaks", DeveloperName: "Foo", VersionSize: 1024, VersionHash: "abc123", ShortDescription: "Foo", Icon: "http://x/i.png", Visible: true},
		{PackageID: "com.paid", Name: "paid", Version: "2.0", Section: "Themes", DeveloperName: "Bar", Price: 199, VersionSize: 2048, VersionHash: "def456", ShortDescription: "Paid", Icon: "http://x/p.png", Visible: true},
	},
	featured: []repo.FeaturedBanner{
		{URL: "https://x/banner.png", Title: "Foo", Package: "com.foo.bar", HideShadow: true},
	},
}

func testAssets(tb testing.TB) string {
	tb.Helper()
	dir := tb.TempDir()
	require.NoError(tb, os.MkdirAll(filepath.Join(dir, "icons", "nested.png"), 0755))
	files := map[string][]byte{
		"CydiaIcon.png":       iconPNG,
		"footerIcon.png":      footerPNG,
		"icons/Tweaks.png":    iconPNG,
		"icons/com.foo.png":   footerPNG,
		"icons/not-an-icon.t": iconPNG,
	}
	for name, b := range files {
		p := filepath.Join(dir, name)
		require.NoError(tb, os.WriteFile(p, b, 0644))
		require.NoError(tb, os.Chtimes(p, assetTime, assetTime))
	}
	return dir
}

func testArmoredKey(tb testing.TB) (*openpgp.Entity, string) {
	tb.Helper()
	entity, err := openpgp.NewEntity("cydiarepo", "test", "test@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	require.NoError(tb, err)

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	require.NoError(tb, err)
	require.NoError(tb, entity.SerializePrivate(w, nil))
	require.NoError(tb, w.Close())
	return entity, buf.String()
}

func newTestHandler(tb testing.TB, src repo.Source, sign signing.Config) *server.Handler {
	tb.Helper()
	h, err := server.NewHandler(&server.Config{
		BaseURL:   testBaseURL,
		AssetsDir: testAssets(tb),
		Signing:   sign,
	}, src)
	require.NoError(tb, err)
	return h
}

func get(h http.Handler, path string, headers ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_Release(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, testSource, signing.Config{})

	w := get(h, "/Release")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, repo.FormatRelease(testSource.releases), w.Body.String())

	empty := newTestHandler(t, TestSource{}, signing.Config{})
	w = get(empty, "/Release")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandler_Packages(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, testSource, signing.Config{})
	expected := repo.FormatPackages(testSource.packages, testBaseURL)

	t.Run("gzip content-encoded", func(t *testing.T) {
		t.Parallel()
		w := get(h, "/Packages")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))

		r, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, expected, string(body))
		assert.Contains(t, string(body), "Filename: https://repo.example/debs/foobar_1.0_iphoneos-arm.deb\n")
		assert.Equal(t, 1, strings.Count(string(body), "Tag: cydia::commercial\n"))
	})

	t.Run("Packages.gz", func(t *testing.T) {
		t.Parallel()
		w := get(h, "/Packages.gz")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, "application/x-gzip", w.Header().Get("Content-Type"))

		r, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, expected, string(body))
	})

	t.Run("Packages.xz", func(t *testing.T) {
		t.Parallel()
		w := get(h, "/Packages.xz")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/x-xz", w.Header().Get("Content-Type"))

		r, err := xz.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, expected, string(body))
	})

	t.Run("Packages.bz2", func(t *testing.T) {
		t.Parallel()
		w := get(h, "/Packages.bz2")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_Featured(t *testing.T) {
	t.Parallel()

	w := get(newTestHandler(t, testSource, signing.Config{}), "/sileo-featured.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"class": "FeaturedBannersView",
		"itemSize": "{263, 148}",
		"itemCornerRadius": 10,
		"banners": [{"url": "https://x/banner.png", "title": "Foo", "package": "com.foo.bar", "hideShadow": true}]
	}`, w.Body.String())

	w = get(newTestHandler(t, TestSource{}, signing.Config{}), "/sileo-featured.json")
	require.Equal(t, http.StatusOK, w.Code)
	var featured repo.Featured
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &featured))
	assert.NotNil(t, featured.Banners)
	assert.Empty(t, featured.Banners)
	assert.Equal(t, "FeaturedBannersView", featured.Class)
}

func TestHandler_Assets(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, testSource, signing.Config{})

	cases := []struct {
		path   string
		status int
		body   []byte
	}{
		{path: "/CydiaIcon.png", status: http.StatusOK, body: iconPNG},
		{path: "/footerIcon.png", status: http.StatusOK, body: footerPNG},
		{path: "/icons/Tweaks", status: http.StatusOK, body: iconPNG},
		{path: "/icons/com.foo", status: http.StatusOK, body: footerPNG},
		{path: "/icons/Missing", status: http.StatusNotFound},
		{path: "/icons/nested", status: http.StatusNotFound},
		{path: "/icons/..", status: http.StatusNotFound},
		{path: "/icons/.hidden", status: http.StatusNotFound},
		{path: "/icons/a/b", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			t.Parallel()
			w := get(h, tc.path)
			require.Equal(t, tc.status, w.Code)
			if tc.status != http.StatusOK {
				return
			}
			assert.Equal(t, tc.body, w.Body.Bytes())
			assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
			assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
			assert.Equal(t, assetTime.Format(http.TimeFormat), w.Header().Get("Last-Modified"))
		})
	}

	t.Run("not modified", func(t *testing.T) {
		t.Parallel()
		w := get(h, "/CydiaIcon.png", "If-Modified-Since", assetTime.Add(time.Hour).Format(http.TimeFormat))
		assert.Equal(t, http.StatusNotModified, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestHandler_StorageErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err    error
		status int
	}{
		"unavailable": {
			err:    &storage.Error{Kind: storage.ErrUnavailable, Op: "query releases", Err: context.DeadlineExceeded},
			status: http.StatusServiceUnavailable,
		},
		"query": {
			err:    &storage.Error{Kind: storage.ErrQuery, Op: "query releases", Err: errors.New("relation does not exist")},
			status: http.StatusInternalServerError,
		},
		"unknown": {
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}
	for name, tc := range cases {
		h := newTestHandler(t, TestSource{err: tc.err}, signing.Config{})
		for _, path := range []string{"/Release", "/Packages", "/Packages.xz", "/sileo-featured.json"} {
			t.Run(fmt.Sprintf("%s %s", name, path), func(t *testing.T) {
				t.Parallel()
				w := get(h, path)
				assert.Equal(t, tc.status, w.Code)
				assert.NotContains(t, w.Body.String(), "Package:")
				assert.Empty(t, w.Header().Get("Content-Encoding"))
			})
		}
	}
}

func TestHandler_Signing(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		h := newTestHandler(t, testSource, signing.Config{})
		assert.Equal(t, http.StatusNotFound, get(h, "/InRelease").Code)
		assert.Equal(t, http.StatusNotFound, get(h, "/Release.gpg").Code)
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		entity, armored := testArmoredKey(t)
		keyring := openpgp.EntityList{entity}
		h := newTestHandler(t, testSource, signing.Config{SigningKey: armored})
		release := repo.FormatRelease(testSource.releases)

		w := get(h, "/InRelease")
		require.Equal(t, http.StatusOK, w.Code)
		block, _ := clearsign.Decode(w.Body.Bytes())
		require.NotNil(t, block)
		assert.Contains(t, string(block.Plaintext), "Suite: stable")
		_, err := block.VerifySignature(keyring, nil)
		assert.NoError(t, err)

		w = get(h, "/Release.gpg")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pgp-signature", w.Header().Get("Content-Type"))
		_, err = openpgp.CheckArmoredDetachedSignature(keyring, strings.NewReader(release), w.Body, nil)
		assert.NoError(t, err)
	})

	t.Run("bad key", func(t *testing.T) {
		t.Parallel()
		_, err := server.NewHandler(&server.Config{Signing: signing.Config{SigningKey: "garbage"}}, testSource)
		assert.ErrorContains(t, err, "error building signer")
	})
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	w := get(newTestHandler(t, testSource, signing.Config{}), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = get(newTestHandler(t, TestSource{err: errors.New("down")}, signing.Config{}), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_Metrics(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, testSource, signing.Config{})

	require.Equal(t, http.StatusOK, get(h, "/icons/Tweaks").Code)
	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cydiarepo_http_requests_total{code="200",route="/icons/{name:[A-Za-z0-9_][A-Za-z0-9_.-]*}"}`)
}
