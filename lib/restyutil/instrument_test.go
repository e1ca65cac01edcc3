package restyutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mu       sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages[id] = contents
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, "SCN", out)

	_, err := client.R().
		SetFormData(map[string]string{
			"username": "alice",
			"password": "hunter2",
		}).
		SetBasicAuth("alice", "hunter2").
		Post(server.URL + "/login")
	require.NoError(t, err)

	_, err = client.R().Get(server.URL + "/page")
	require.NoError(t, err)

	require.Len(t, out.messages, 2)

	login := out.messages["scn-0001"]
	require.Contains(t, login, "POST "+server.URL+"/login")
	require.Contains(t, login, "username=alice")
	require.Contains(t, login, "password=%3Credacted%3E")
	require.NotContains(t, login, "hunter2")
	require.Contains(t, login, "Authorization: <redacted>")
	require.Contains(t, login, "<html>ok</html>")

	page := out.messages["scn-0002"]
	require.Contains(t, page, "GET "+server.URL+"/page")
	require.Contains(t, page, "<NO BODY AVAILABLE>")
}

func TestInstrumentClientNilOutput(t *testing.T) {
	client := resty.New()
	InstrumentClient(client, "noop", nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := t.TempDir() + "/dumps"
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("bnc-0001", "contents")
	require.FileExists(t, dir+"/bnc-0001.txt")
}
