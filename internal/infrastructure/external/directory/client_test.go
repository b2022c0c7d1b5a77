package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageDTO_Parsing(t *testing.T) {
	jsonData := `{
    "students": [
        {
            "guid": "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b",
            "fullName": "Иванов Иван Иванович",
            "group": "221-351",
            "isActive": true
        },
        {
            "guid": "9ca4322d-ebd5-4ffa-a340-56fe811bbab1",
            "fullName": "Петрова Анна Сергеевна",
            "group": "221-352",
            "isActive": false
        }
    ]
}`

	var page pageDTO
	err := json.Unmarshal([]byte(jsonData), &page)
	assert.NoError(t, err)

	assert.Len(t, page.Students, 2)
	assert.Equal(t, "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b", page.Students[0].GUID)
	assert.Equal(t, "Иванов Иван Иванович", page.Students[0].FullName)
	assert.Equal(t, "221-351", page.Students[0].Group)
	assert.True(t, page.Students[0].IsActive)
	assert.False(t, page.Students[1].IsActive)
}

func TestClient_FetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/students", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "250", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"students": [{"guid": "s1", "fullName": "Иванов И.И.", "group": "221-351", "isActive": true}]}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig(server.URL)
	cfg.APIKey = "test-key"
	client := NewClient(cfg)

	students, err := client.FetchPage(context.Background(), 0, 250)
	require.NoError(t, err)

	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].GUID)
	assert.Equal(t, "221-351", students[0].GroupNumber)
	assert.True(t, students[0].IsActive)
}

func TestClient_FetchPage_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"students": []}`))
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	students, err := client.FetchPage(context.Background(), 500, 250)
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestClient_FetchPage_ClientErrorNotRetried(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	_, err := client.FetchPage(context.Background(), 0, 250)
	assert.Error(t, err)
	assert.Equal(t, 1, requests)
}

func TestClient_FetchPage_ServerErrorRetried(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"students": [{"guid": "s1", "fullName": "Иванов И.И.", "group": "221-351", "isActive": true}]}`))
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	students, err := client.FetchPage(context.Background(), 0, 250)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 3, requests)
}
