package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex     sync.Mutex
	exchanges map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.exchanges[id] = contents
}

func TestDump(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Answer", "42")
		fmt.Fprint(w, "<html>hello</html>")
	}))
	defer srv.Close()

	out := &memoryOutput{exchanges: map[string]string{}}
	client := resty.New()
	Dump(client, "site", out)

	_, err := client.R().Get(srv.URL + "/page")
	require.NoError(t, err)
	_, err = client.R().SetFormData(map[string]string{"grant_type": "client_credentials"}).Post(srv.URL + "/token")
	require.NoError(t, err)

	require.Len(t, out.exchanges, 2)

	get := out.exchanges["site-0001"]
	require.Contains(t, get, "GET "+srv.URL+"/page")
	require.Contains(t, get, "X-Answer: 42")
	require.Contains(t, get, "<html>hello</html>")

	post := out.exchanges["site-0002"]
	require.Contains(t, post, "POST "+srv.URL+"/token")
	require.Contains(t, post, "grant_type=client_credentials")
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dump")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("api-0001", "contents")

	written, err := os.ReadFile(filepath.Join(dir, "api-0001"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFormatRequestBodyWithoutBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.test", nil)
	require.NoError(t, err)
	require.Equal(t, "", formatRequestBody(req))

	req.GetBody = func() (io.ReadCloser, error) { return nil, nil }
	require.Equal(t, "", formatRequestBody(req))

	req.GetBody = func() (io.ReadCloser, error) { return http.NoBody, nil }
	require.Equal(t, "", formatRequestBody(req))

	req, err = http.NewRequest(http.MethodPost, "http://example.test", strings.NewReader("a=1"))
	require.NoError(t, err)
	require.Equal(t, "a=1", formatRequestBody(req))
}
