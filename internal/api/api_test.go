package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/enigma/internal/engine"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/rotor"
	"github.com/rubiojr/enigma/internal/types"
)

func testServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(Router(keysearch.New(engine.Default())))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvertHandler(t *testing.T) {
	handler := convertHandler(keysearch.New(engine.Default()))

	testCases := []struct {
		name           string
		body           string
		expectedStatus int
		expectedOutput string
	}{
		{
			name:           "Attack at dawn",
			body:           `{"text":"Attack at Dawn!","settings":[0,0,0]}`,
			expectedStatus: http.StatusOK,
			expectedOutput: "CKXGMWKVMUGX",
		},
		{
			name:           "Decrypt",
			body:           `{"text":"CKXGMWKVMUGX","settings":[0,0,0]}`,
			expectedStatus: http.StatusOK,
			expectedOutput: "ATTACKATDAWN",
		},
		{
			name:           "Setting out of range",
			body:           `{"text":"HELLO","settings":[0,26,0]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Negative setting",
			body:           `{"text":"HELLO","settings":[-1,0,0]}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed body",
			body:           `{"text":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown field",
			body:           `{"text":"HELLO","rotors":[1,2,3]}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedStatus != http.StatusOK {
				var errResp map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, "error", errResp["status"])
				assert.NotEmpty(t, errResp["error"])
				return
			}

			var resp types.ConvertResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.expectedOutput, resp.Output)
		})
	}
}

func TestCrackHandler(t *testing.T) {
	handler := crackHandler(keysearch.New(engine.Default()))

	req := httptest.NewRequest(http.MethodPost, "/crack", strings.NewReader(`{"ciphertext":"TVMKTYFJZV","fragment":"hello"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.CrackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 13, resp.Count)
	assert.Equal(t, keysearch.Keyspace, resp.Tried)
	assert.Contains(t, resp.Candidates, types.Candidate{Setting1: 3, Setting2: 7, Setting3: 12, Decoded: "HELLOWORLD"})

	req = httptest.NewRequest(http.MethodPost, "/crack", strings.NewReader(`{"fragment":"hello"}`))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClient(t *testing.T) {
	srv := testServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	out, err := client.Convert(ctx, "Attack at Dawn!", 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "CKXGMWKVMUGX", out)

	_, err = client.Convert(ctx, "HELLO", 0, 0, 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 25")
	assert.Contains(t, err.Error(), "status: 400")

	resp, err := client.Crack(ctx, "TVMKTYFJZV", "HELLO")
	require.NoError(t, err)
	assert.Len(t, resp.Candidates, 13)

	resp, err = client.Crack(ctx, "TVMKTYFJZV", "NOTTHERE")
	require.NoError(t, err)
	assert.Empty(t, resp.Candidates)
	assert.Equal(t, 0, resp.Count)

	info, err := client.Machine(ctx)
	require.NoError(t, err)
	assert.Equal(t, rotor.DefaultRotorPatterns(), info.Rotors)
	assert.Equal(t, rotor.ReflectorPattern, info.Reflector)
	assert.Len(t, info.Fingerprint, 16)
}
