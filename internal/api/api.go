package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/rubiojr/enigma/internal/errmsg"
	"github.com/rubiojr/enigma/internal/keysearch"
	"github.com/rubiojr/enigma/internal/log"
	"github.com/rubiojr/enigma/internal/types"
)

// maxBody caps request bodies; a crack request runs 17,576 conversions of its ciphertext.
const maxBody = 64 * 1024

// Router returns the API routes served with searcher and its machine.
func Router(searcher *keysearch.Searcher) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/convert", convertHandler(searcher))
	r.Post("/crack", crackHandler(searcher))
	r.Get("/machine", machineHandler(searcher))
	return r
}

// Serve runs the API on addr until ctx is done.
func Serve(ctx context.Context, addr string, searcher *keysearch.Searcher) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: Router(searcher),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type Client struct {
	client    *http.Client
	serverURL string
}

func NewClient(serverURL string) *Client {
	client := &http.Client{
		// Crack requests can take a while on slow machines.
		Timeout: 2 * time.Minute,
		Transport: &http.Transport{
			IdleConnTimeout: 90 * time.Second,
			Dial: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).Dial,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
	return &Client{client: client, serverURL: serverURL}
}

func (c *Client) Convert(ctx context.Context, text string, s1, s2, s3 int) (string, error) {
	var resp types.ConvertResponse
	req := types.ConvertRequest{Text: text, Settings: [3]int{s1, s2, s3}}
	if err := c.do(ctx, http.MethodPost, "/convert", req, &resp); err != nil {
		return "", err
	}
	return resp.Output, nil
}

func (c *Client) Crack(ctx context.Context, ciphertext, fragment string) (*types.CrackResponse, error) {
	var resp types.CrackResponse
	req := types.CrackRequest{Ciphertext: ciphertext, Fragment: fragment}
	if err := c.do(ctx, http.MethodPost, "/crack", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Machine(ctx context.Context) (*types.MachineInfo, error) {
	var resp types.MachineInfo
	if err := c.do(ctx, http.MethodGet, "/machine", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)

		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error != "" {
			return fmt.Errorf("server returned error: %s (status: %d)", errorResp.Error, resp.StatusCode)
		}

		return fmt.Errorf("server returned non-OK status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func statusJSON(code int, err error, w http.ResponseWriter, r *http.Request) {
	if err != nil {
		render.Status(r, code)
		render.JSON(w, r, map[string]string{
			"status": "error",
			"error":  err.Error(),
			"code":   strconv.Itoa(code),
		})
		return
	}

	render.JSON(w, r, map[string]string{
		"status": "ok",
		"code":   strconv.Itoa(code),
	})
}

// errorStatus maps caller mistakes to 400 and everything else to 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errmsg.ErrSettingOutOfRange), errors.Is(err, errmsg.ErrInvalidPattern):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func convertHandler(searcher *keysearch.Searcher) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.ConvertRequest
		if err := decodeBody(w, r, &req); err != nil {
			statusJSON(http.StatusBadRequest, err, w, r)
			return
		}

		out, err := searcher.Machine().Convert(req.Text, req.Settings[0], req.Settings[1], req.Settings[2])
		if err != nil {
			statusJSON(errorStatus(err), err, w, r)
			return
		}

		render.JSON(w, r, types.ConvertResponse{Output: out})
	})
}

func crackHandler(searcher *keysearch.Searcher) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.CrackRequest
		if err := decodeBody(w, r, &req); err != nil {
			statusJSON(http.StatusBadRequest, err, w, r)
			return
		}

		if req.Ciphertext == "" {
			statusJSON(http.StatusBadRequest, errors.New("ciphertext is required"), w, r)
			return
		}

		start := time.Now()
		found, err := searcher.Crack(r.Context(), req.Ciphertext, req.Fragment)
		if err != nil {
			statusJSON(errorStatus(err), err, w, r)
			return
		}

		render.JSON(w, r, types.CrackResponse{
			Candidates: found,
			Count:      len(found),
			Tried:      keysearch.Keyspace,
			ElapsedMS:  time.Since(start).Milliseconds(),
		})
	})
}

func machineHandler(searcher *keysearch.Searcher) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := searcher.Machine()
		render.JSON(w, r, types.MachineInfo{
			Rotors:      m.Bank().RotorPatterns(),
			Reflector:   m.Bank().ReflectorPattern(),
			Fingerprint: fmt.Sprintf("%016x", m.Fingerprint()),
		})
	})
}
