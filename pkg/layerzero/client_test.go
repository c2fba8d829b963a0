package layerzero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(ClientConfig{
		APIBaseURL:    server.URL + "/v1/",
		TxPageBaseURL: server.URL + "/tx",
		UserAgent:     "lzpending-test",
		TimeoutSec:    2,
	})
	return client, server
}

func TestFetchMessages(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "0xowner", r.URL.Query().Get("address"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "lzpending-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]any{
				{"srcTxHash": "0x01", "dstEid": 30101},
				{"srcTxHash": "0x02"},
			},
		})
	})

	out := client.FetchMessages(context.Background(), "0xowner", 1, 50)

	require.True(t, out.Available)
	require.Len(t, out.Value, 2)
	assert.Equal(t, "0x01", out.Value[0]["srcTxHash"])
	assert.Equal(t, json.Number("30101"), out.Value[0]["dstEid"])
}

func TestFetchMessages_MissingMessagesArray(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})

	out := client.FetchMessages(context.Background(), "0xowner", 1, 50)

	assert.True(t, out.Available)
	assert.NotNil(t, out.Value)
	assert.Empty(t, out.Value)
}

func TestFetchMessages_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>maintenance</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := setupTestClient(t, tt.handler)

			out := client.FetchMessages(context.Background(), "0xowner", 1, 50)

			assert.False(t, out.Available)
			assert.Empty(t, out.Value)
		})
	}
}

func TestFetchMessages_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(ClientConfig{APIBaseURL: server.URL, TxPageBaseURL: server.URL, TimeoutSec: 1})
	server.Close()

	out := client.FetchMessages(context.Background(), "0xowner", 1, 50)

	assert.False(t, out.Available)
}

func TestFetchDetailDocument(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/0xabc", r.URL.Path)
		assert.Equal(t, "lzpending-test", r.Header.Get("User-Agent"))
		w.Write([]byte("<html>0xabc</html>"))
	})

	out := client.FetchDetailDocument(context.Background(), "0xabc")

	require.True(t, out.Available)
	assert.Equal(t, "<html>0xabc</html>", out.Value)
}

func TestFetchDetailDocument_NotFound(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	out := client.FetchDetailDocument(context.Background(), "0xabc")

	assert.False(t, out.Available)
	assert.Equal(t, "", out.Value)
}

func TestTxPageURL(t *testing.T) {
	client := NewClient(ClientConfig{TxPageBaseURL: "https://layerzeroscan.com/tx/"})

	assert.Equal(t, "https://layerzeroscan.com/tx/0xdeadbeef", client.TxPageURL("0xdeadbeef"))
}

func TestFetchMessages_SkipsRowsThatAreNotObjects(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[
			"legacy-string-row",
			42,
			["nested"],
			null,
			{"srcTxHash":"0xaa","executorStatus":"WAITING","dstEid":30110},
			{"srcTxHash":"0xbb"}
		]}`))
	})

	out := client.FetchMessages(context.Background(), "0xowner", 1, 50)

	require.True(t, out.Available)
	require.Len(t, out.Value, 2)
	assert.Equal(t, "0xaa", out.Value[0]["srcTxHash"])
	assert.Equal(t, json.Number("30110"), out.Value[0]["dstEid"])
	assert.Equal(t, "0xbb", out.Value[1]["srcTxHash"])
}

func TestFetchMessages_OnlyBadRows(t *testing.T) {
	client, _ := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":["a","b"]}`))
	})

	out := client.FetchMessages(context.Background(), "0xowner", 1, 50)

	assert.True(t, out.Available)
	assert.NotNil(t, out.Value)
	assert.Empty(t, out.Value)
}
