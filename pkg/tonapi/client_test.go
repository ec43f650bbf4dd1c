package tonapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
)

const collectionRaw = "0:1111111111111111111111111111111111111111111111111111111111111111"

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestGetTransaction(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/blockchain/transactions/abc123", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hash": "abc123",
			"utime": 1700000000,
			"success": true,
			"aborted": false,
			"in_msg": {
				"value": 2500000000,
				"source": {"address": "0:2222222222222222222222222222222222222222222222222222222222222222"},
				"destination": {"address": "` + collectionRaw + `"}
			}
		}`))
	})

	tx, err := c.GetTransaction(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", tx.Hash)
	assert.Equal(t, "2500000000", tx.Value)
	assert.Equal(t, collectionRaw, tx.Destination)
	assert.Equal(t, int64(1700000000), tx.Utime)
	assert.True(t, tx.Success)
}

func TestGetTransactionAborted(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hash":"h","success":true,"aborted":true,"in_msg":{"value":"10"}}`))
	})

	tx, err := c.GetTransaction(context.Background(), "h")
	require.NoError(t, err)
	assert.False(t, tx.Success)
	assert.Equal(t, "10", tx.Value)
}

func TestGetTransactionErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"entity not found"}`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTransactionNotFound)
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `{"error":"upstream down"}`,
			wantErr: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
				assert.Equal(t, "upstream down", apiErr.Message)
			},
		},
		{
			name:   "garbage body",
			status: http.StatusOK,
			body:   `<html>`,
			wantErr: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrTransactionNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.GetTransaction(context.Background(), "h")
			tt.wantErr(t, err)
		})
	}
}

func TestGetTransactionHonoursContext(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetTransaction(ctx, "slow")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTransactionNotFound)
}

func TestGetAccountBalance(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"address":"` + collectionRaw + `","balance":123456789012,"status":"active"}`))
	})

	bal, err := c.GetAccountBalance(context.Background(), collectionRaw)
	require.NoError(t, err)
	assert.Equal(t, "123456789012", bal)

	_, err = c.GetAccountBalance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMockClient(t *testing.T) {
	c, err := NewClient(Config{MockAPI: true, MockDestination: collectionRaw})
	require.NoError(t, err)

	tx, err := c.GetTransaction(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, collectionRaw, tx.Destination)
	assert.True(t, tx.Success)

	a, err := c.GetAccountBalance(context.Background(), collectionRaw)
	require.NoError(t, err)
	b, err := c.GetAccountBalance(context.Background(), collectionRaw)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestSameAddress(t *testing.T) {
	friendly := ton.MustParseAccountID(collectionRaw).ToHuman(true, false)

	assert.True(t, SameAddress(collectionRaw, friendly))
	assert.True(t, SameAddress(friendly, collectionRaw))
	assert.False(t, SameAddress(collectionRaw, "0:2222222222222222222222222222222222222222222222222222222222222222"))
	assert.True(t, SameAddress("not-an-address", "not-an-address"))
	assert.False(t, SameAddress("", ""))

	raw, err := NormalizeAddress(friendly)
	require.NoError(t, err)
	assert.Equal(t, collectionRaw, raw)

	_, err = NormalizeAddress("nope")
	assert.Error(t, err)
}
