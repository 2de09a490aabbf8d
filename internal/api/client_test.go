package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/session"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// stubServer answers every request with the given status and body and
// records what it received.
type stubServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
	ctype    string
}

func newStubServer(t *testing.T, status int, body string) *stubServer {
	t.Helper()
	s := &stubServer{status: status, body: body, ctype: "application/json"}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(b),
		})
		status, body, ctype := s.status, s.body, s.ctype
		s.mu.Unlock()
		w.Header().Set("Content-Type", ctype)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) last(t *testing.T) capturedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests, "no request received")
	return s.requests[len(s.requests)-1]
}

func loggedInStore(t *testing.T, expiresAt time.Time) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), model.Session{
		Token:     "secret-token",
		UserName:  "Rina",
		UserPhone: "01711111111",
		UserType:  "1",
		ExpiresAt: expiresAt,
	}))
	return store
}

func TestClient_HeadersAndBearer(t *testing.T) {
	srv := newStubServer(t, http.StatusOK, `{"success":true,"data":1520}`)
	c := New(srv.URL+"/", loggedInStore(t, time.Now().Add(time.Hour)))

	res := c.TotalSales(context.Background())
	require.True(t, res.Success, res.Error)
	assert.Equal(t, json.Number("1520"), res.Data)

	req := srv.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/brand-store/sales/get-total-sales", req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
}

func TestClient_NoBearerWhenExpiredOrPublic(t *testing.T) {
	srv := newStubServer(t, http.StatusOK, `{"success":true}`)

	expired := New(srv.URL, loggedInStore(t, time.Now().Add(-time.Minute)))
	require.True(t, expired.Logout(context.Background()).Success)
	assert.Empty(t, srv.last(t).Header.Get("Authorization"))

	valid := New(srv.URL, loggedInStore(t, time.Now().Add(time.Hour)))
	res := valid.SendOtp(context.Background(), SendOtpRequest{Phone: "01711111111", Type: 5, CheckPlace: 1})
	require.True(t, res.Success)
	req := srv.last(t)
	assert.Equal(t, "/send-otp-phone", req.Path)
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.JSONEq(t, `{"phone":"01711111111","type":5,"check_place":1}`, req.Body)
}

func TestClient_Predicates(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		call    func(c *Client) (bool, ErrorKind)
		success bool
		kind    ErrorKind
	}{
		{
			name: "flag true",
			body: `{"success":true,"data":{"token":"t","name":"n","phone":"p","employee_type":2}}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.Login(context.Background(), "a@b.c", "secret")
				return r.Success, r.Kind
			},
			success: true,
		},
		{
			name: "flag missing",
			body: `{"data":{"token":"t"}}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.Login(context.Background(), "a@b.c", "secret")
				return r.Success, r.Kind
			},
			kind: KindRejected,
		},
		{
			name: "empty list is success",
			body: `{"data":[]}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.StoreList(context.Background())
				return r.Success, r.Kind
			},
			success: true,
		},
		{
			name: "list object is rejected",
			body: `{"data":{"id":1}}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.StoreList(context.Background())
				return r.Success, r.Kind
			},
			kind: KindRejected,
		},
		{
			name: "created record without flag",
			body: `{"data":{"id":9,"order_no":"SO-9"}}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.SalesCreate(context.Background(), SaleRequest{Name: "x", Phone: "01711111111", SerialNo: "A"})
				return r.Success, r.Kind
			},
			success: true,
		},
		{
			name: "explicit false wins over data",
			body: `{"success":false,"message":"Serial already sold","data":[]}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.SerialNoVerify(context.Background(), "A")
				return r.Success, r.Kind
			},
			kind: KindRejected,
		},
		{
			name: "totals need the flag",
			body: `{"data":42}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.TotalSales(context.Background())
				return r.Success, r.Kind
			},
			kind: KindRejected,
		},
		{
			name: "logout accepts any 2xx",
			body: `{}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.Logout(context.Background())
				return r.Success, r.Kind
			},
			success: true,
		},
		{
			name: "logout accepts an empty body",
			body: ``,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.Logout(context.Background())
				return r.Success, r.Kind
			},
			success: true,
		},
		{
			name: "logout explicit false",
			body: `{"success":false,"message":"Token already revoked"}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.Logout(context.Background())
				return r.Success, r.Kind
			},
			kind: KindRejected,
		},
		{
			name: "malformed body",
			body: `<html>oops</html>`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.TotalStock(context.Background())
				return r.Success, r.Kind
			},
			kind: KindDecode,
		},
		{
			name: "wrong data type",
			body: `{"success":true,"data":"not-a-list"}`,
			call: func(c *Client) (bool, ErrorKind) {
				r := c.SerialNoVerify(context.Background(), "A")
				return r.Success, r.Kind
			},
			kind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newStubServer(t, http.StatusOK, tt.body)
			c := New(srv.URL, nil)
			success, kind := tt.call(c)
			assert.Equal(t, tt.success, success)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestClient_RejectedMessage(t *testing.T) {
	srv := newStubServer(t, http.StatusOK, `{"success":false,"message":"Invalid credentials"}`)
	res := New(srv.URL, nil).Login(context.Background(), "a@b.c", "bad")
	require.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Error)

	err := res.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestClient_StatusFailure(t *testing.T) {
	srv := newStubServer(t, http.StatusUnprocessableEntity, `{"message":"","errors":{"phone":["The phone field is required."],"name":["The name field is required."]}}`)
	res := New(srv.URL, nil).SalesCreate(context.Background(), SaleRequest{})
	require.False(t, res.Success)
	assert.Equal(t, KindStatus, res.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "The name field is required.", res.Error)

	srv2 := newStubServer(t, http.StatusInternalServerError, `boom`)
	res2 := New(srv2.URL, nil).StoreList(context.Background())
	assert.Equal(t, "request failed with status 500", res2.Error)
	assert.ErrorIs(t, res2.Err(), ErrStatus)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := New(url, nil).TotalSales(context.Background())
	require.False(t, res.Success)
	assert.Equal(t, KindTransport, res.Kind)
	assert.Contains(t, res.Error, "network error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	live := newStubServer(t, http.StatusOK, `{"success":true}`)
	res = New(live.URL, nil).TotalSales(ctx)
	assert.Equal(t, KindTransport, res.Kind)
	assert.Equal(t, "request cancelled", res.Error)
}

func TestClient_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	res := New(srv.URL, nil, WithTimeout(50*time.Millisecond)).TotalStock(context.Background())
	assert.Equal(t, KindTransport, res.Kind)
	assert.Equal(t, "request timed out", res.Error)
}

func TestClient_Pagination(t *testing.T) {
	srv := newStubServer(t, http.StatusOK, `{"data":[{"id":1,"product_name":"Phone X","stock":4},{"id":2,"product_name":"Phone Y","stock":0}],"meta":{"current_page":2,"last_page":5}}`)
	c := New(srv.URL, nil, WithPerPage(25, 0))

	res := c.StockList(context.Background(), 2)
	require.True(t, res.Success, res.Error)
	assert.Len(t, res.Data.Items, 2)
	assert.Equal(t, "Phone X", res.Data.Items[0].ProductName)
	assert.Equal(t, 2, res.Data.CurrentPage)
	assert.Equal(t, 5, res.Data.LastPage)

	req := srv.last(t)
	assert.Equal(t, "/brand-store/stock/inventories", req.Path)
	assert.Equal(t, "page=2&per_page=25", req.Query)

	c.SalesList(context.Background(), 1)
	assert.Equal(t, "page=1&per_page=10", srv.last(t).Query)
}

func TestClient_PaginationNormalizesMeta(t *testing.T) {
	srv := newStubServer(t, http.StatusOK, `{"data":[],"meta":{"current_page":3,"last_page":0}}`)
	res := New(srv.URL, nil).StockUpdateList(context.Background(), 3)
	require.True(t, res.Success)
	assert.Empty(t, res.Data.Items)
	assert.NotNil(t, res.Data.Items)
	assert.Equal(t, 3, res.Data.CurrentPage)
	assert.Equal(t, 3, res.Data.LastPage)

	noMeta := newStubServer(t, http.StatusOK, `{"data":[{"id":1,"order_no":"INV-1","date":"2024-01-02","quantity":2,"details":[]}]}`)
	res = New(noMeta.URL, nil).StockUpdateList(context.Background(), 4)
	require.True(t, res.Success)
	assert.Equal(t, 4, res.Data.CurrentPage)
	assert.Equal(t, 4, res.Data.LastPage)
}

func TestClient_BinaryReport(t *testing.T) {
	srv := newStubServer(t, http.StatusOK, "PK\x03\x04workbook")
	srv.ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	res := New(srv.URL, nil).SalesReport(context.Background(), SalesReportRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", StoreID: ""})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []byte("PK\x03\x04workbook"), res.Data)
	assert.JSONEq(t, `{"start_date":"2024-01-01","end_date":"2024-01-31","store_id":""}`, srv.last(t).Body)

	rejected := newStubServer(t, http.StatusOK, `{"success":false,"message":"No data found"}`)
	res = New(rejected.URL, nil).StockReport(context.Background(), StockReportRequest{StoreID: "3"})
	assert.Equal(t, KindRejected, res.Kind)
	assert.Equal(t, "No data found", res.Error)

	empty := newStubServer(t, http.StatusOK, ``)
	res = New(empty.URL, nil).StockReport(context.Background(), StockReportRequest{})
	assert.Equal(t, KindDecode, res.Kind)
}

func TestEndpointsTable(t *testing.T) {
	seen := map[string]bool{}
	for _, ep := range Endpoints {
		assert.False(t, seen[ep.Name], "duplicate endpoint %s", ep.Name)
		seen[ep.Name] = true
		assert.NotEmpty(t, ep.Path)
	}
	assert.Len(t, Endpoints, 18)

	for _, ep := range []Endpoint{EndpointSendOtp, EndpointVerifyOtp, EndpointResetPassword} {
		assert.True(t, ep.Public, ep.Name)
	}
	assert.False(t, EndpointLogin.Public)
}

func TestWithTimeout_LeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: 7 * time.Second}
	c := New("http://example.invalid", nil, WithHTTPClient(shared), WithTimeout(50*time.Millisecond))

	assert.Equal(t, 7*time.Second, shared.Timeout)
	assert.Equal(t, 50*time.Millisecond, c.httpClient.Timeout)
	assert.NotSame(t, shared, c.httpClient)
}
