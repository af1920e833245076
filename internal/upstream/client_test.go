package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/spt-web/internal/models"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

type stubServer struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func newStubServer(status int, response string) (*stubServer, *httptest.Server) {
	stub := &stubServer{status: status, response: response}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.requests = append(stub.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stub.status)
		w.Write([]byte(stub.response)) //nolint:errcheck
	}))
	return stub, server
}

func (s *stubServer) last() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func staticToken(token string) TokenSource {
	return func(context.Context) string { return token }
}

func TestClientAttachesFreshTokenPerCall(t *testing.T) {
	stub, server := newStubServer(http.StatusOK, "[]")
	defer server.Close()

	token := "tok-1"
	client := NewClient(Config{BaseURL: server.URL, Timeout: time.Second},
		func(context.Context) string { return token }, nil, nil)

	_, err := client.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", stub.last().auth)

	token = "tok-2"
	_, err = client.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-2", stub.last().auth)
}

func TestClientOmitsHeaderWithoutToken(t *testing.T) {
	stub, server := newStubServer(http.StatusOK, "[]")
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, staticToken(""), nil, nil)
	_, err := client.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stub.last().auth)
}

func TestClientLoginParsesToken(t *testing.T) {
	stub, server := newStubServer(http.StatusOK, `{"token":"issued-token"}`)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil, nil)
	token, err := client.Login(context.Background(), models.Credentials{Username: "amy", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "issued-token", token)

	req := stub.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/login", req.path)

	var sent models.Credentials
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Equal(t, "amy", sent.Username)
}

func TestClientUnauthorizedMapsToTypedError(t *testing.T) {
	_, server := newStubServer(http.StatusUnauthorized, `{"message":"bad credentials"}`)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil, nil)
	_, err := client.ListStudents(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestClientNotFoundMapsToTypedError(t *testing.T) {
	_, server := newStubServer(http.StatusNotFound, `{}`)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil, nil)
	_, err := client.GetPerformance(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClientServerErrorMapsToUpstream(t *testing.T) {
	_, server := newStubServer(http.StatusInternalServerError, `{}`)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil, nil)
	err := client.CreateStudent(context.Background(), models.NewStudent{Name: "Alex", RollNo: "21", ClassName: "10-A"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestClientDeleteStudentPath(t *testing.T) {
	stub, server := newStubServer(http.StatusOK, `{}`)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil, nil)
	require.NoError(t, client.DeleteStudent(context.Background(), "abc123"))

	req := stub.last()
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/students/abc123", req.path)
}

type observedCall struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []observedCall
}

func (o *fakeObserver) ObserveUpstream(method, path string, status int, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observedCall{method: method, route: path, status: status})
}

func TestClientObserverGetsRouteTemplateNotRawPath(t *testing.T) {
	_, server := newStubServer(http.StatusOK, "[]")
	defer server.Close()

	observer := &fakeObserver{}
	client := NewClient(Config{BaseURL: server.URL}, nil, observer, nil)

	_, err := client.GetPerformance(context.Background(), "abc123")
	require.NoError(t, err)
	require.NoError(t, client.DeleteStudent(context.Background(), "abc123"))

	require.Len(t, observer.calls, 2)
	assert.Equal(t, "/performance/:id", observer.calls[0].route)
	assert.Equal(t, "/students/:id", observer.calls[1].route)
	assert.Equal(t, http.StatusOK, observer.calls[0].status)
}

func TestClientGetPerformancePath(t *testing.T) {
	stub, server := newStubServer(http.StatusOK, `[{"_id":"s1","studentId":"abc123","subject":"Math","marks":"90"}]`)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, nil, nil, nil)
	records, err := client.GetPerformance(context.Background(), "abc123")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Math", records[0].Subject)
	assert.Equal(t, "90", records[0].Marks)
	assert.Equal(t, "/performance/abc123", stub.last().path)
}
