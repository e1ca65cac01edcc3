package engine

import (
	"context"
	"fmt"
	"freqgrabber/internal/telemetry"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bncTestUser     = "bob"
	bncTestPassword = "hunter2"
)

// bncLateUtf8Page has no declared charset and no non-ASCII byte in the part
// a charset sniffer looks at.
var bncLateUtf8Page = "<html><body>" + strings.Repeat("x", 1100) + " 語 Syntax error</body></html>"

// fakeBNC answers like BNCweb's "count hits" query, keyed on the word.
type fakeBNC struct {
	mu       sync.Mutex
	requests int
	authed   int
}

func (f *fakeBNC) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(bncQueryPath, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		user, pass, ok := r.BasicAuth()
		if !ok || user != bncTestUser || pass != bncTestPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="BNCweb"`)
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `<html><head><title>401 Authorization Required</title></head><body>Authorization Required</body></html>`)
			return
		}
		f.authed++

		query := r.URL.Query()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "CQL", query.Get("queryType"))
		assert.Equal(t, "Simple query (ignore case)", query.Get("qMode"))
		assert.Equal(t, "count hits", query.Get("inst"))
		assert.Equal(t, "Start Query", query.Get("theAction"))

		word := query.Get("theData")
		switch word {
		case "zzzzqx":
			fmt.Fprint(w, `<html><body><p class="errormessage">There are no matches for your query.</p></body></html>`)
		case "broken":
			fmt.Fprint(w, `<html><head><title>BNCweb error</title></head><body>Syntax error</body></html>`)
		case "late-utf8":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, bncLateUtf8Page)
		case "crash":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `<html><body>Internal Server Error</body></html>`)
		default:
			fmt.Fprintf(
				w,
				`<html><body>Your query "%s" returned 4523 hits in 1245 different texts (98,313,429 words [4,048 texts]; frequency: 46.01 instances per million words)</body></html>`,
				word,
			)
		}
	})
	return mux
}

func newTestBNC(t *testing.T, baseUrl, password string) *BNC {
	t.Helper()
	bnc, err := NewBNC(Options{
		Username:  bncTestUser,
		Password:  password,
		BaseUrl:   baseUrl,
		Telemetry: telemetry.NewRecorder(),
	})
	require.NoError(t, err)
	return bnc
}

func startFakeBNC(t *testing.T, fake *fakeBNC) *httptest.Server {
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)
	return server
}

func TestBNCQuery(t *testing.T) {
	fake := &fakeBNC{}
	server := startFakeBNC(t, fake)
	bnc := newTestBNC(t, server.URL, bncTestPassword)

	record, err := bnc.Query(context.Background(), "cat")
	require.NoError(t, err)
	require.Equal(t, Record{Word: "cat", HitCount: "4523", PerMillion: "46.01"}, record)

	record, err = bnc.Query(context.Background(), "dog")
	require.NoError(t, err)
	require.Equal(t, "dog", record.Word)

	// credentials go out with every request
	require.Equal(t, 2, fake.requests)
	require.Equal(t, 2, fake.authed)
}

func TestBNCNoMatches(t *testing.T) {
	server := startFakeBNC(t, &fakeBNC{})
	bnc := newTestBNC(t, server.URL, bncTestPassword)

	record, err := bnc.Query(context.Background(), "zzzzqx")
	require.NoError(t, err)
	require.Equal(t, Record{Word: "zzzzqx", HitCount: "0", PerMillion: "0"}, record)
}

func TestBNCUnauthorized(t *testing.T) {
	fake := &fakeBNC{}
	server := startFakeBNC(t, fake)
	bnc := newTestBNC(t, server.URL, "wrong")

	_, err := bnc.Query(context.Background(), "cat")
	require.ErrorIs(t, err, ErrAuthentication)
	require.NotErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, errBadCredentials)
	require.Contains(t, err.Error(), "401")
	require.Contains(t, DebugInfo(err), "Authorization Required")

	// no retry
	require.Equal(t, 1, fake.requests)
}

func TestBNCParseError(t *testing.T) {
	server := startFakeBNC(t, &fakeBNC{})
	bnc := newTestBNC(t, server.URL, bncTestPassword)

	_, err := bnc.Query(context.Background(), "broken")
	require.ErrorIs(t, err, ErrParse)
	require.Contains(t, err.Error(), "BNCweb error")
	require.Contains(t, DebugInfo(err), "Syntax error")
}

func TestBNCDebugInfoIsRawBody(t *testing.T) {
	server := startFakeBNC(t, &fakeBNC{})
	bnc := newTestBNC(t, server.URL, bncTestPassword)

	_, err := bnc.Query(context.Background(), "late-utf8")
	require.ErrorIs(t, err, ErrParse)
	require.Equal(t, bncLateUtf8Page, DebugInfo(err))
}

func TestBNCServerError(t *testing.T) {
	server := startFakeBNC(t, &fakeBNC{})
	bnc := newTestBNC(t, server.URL, bncTestPassword)

	_, err := bnc.Query(context.Background(), "crash")
	require.ErrorIs(t, err, ErrTransport)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, DebugInfo(err), "Internal Server Error")
}

func TestBNCTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseUrl := server.URL
	server.Close()

	bnc := newTestBNC(t, baseUrl, bncTestPassword)
	_, err := bnc.Query(context.Background(), "cat")
	require.ErrorIs(t, err, ErrTransport)
	require.NotErrorIs(t, err, ErrAuthentication)
	require.Contains(t, err.Error(), baseUrl+bncQueryPath)
}

func TestBNCCancelled(t *testing.T) {
	server := startFakeBNC(t, &fakeBNC{})
	bnc := newTestBNC(t, server.URL, bncTestPassword)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bnc.Query(ctx, "cat")
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, context.Canceled)
}
