package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tuskan/zarrgo/storekey"
)

// HTTPStore is a read-only store backed by net/http Range requests against
// a base URL.
type HTTPStore struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPStore constructs an HTTPStore rooted at baseURL (which should end
// in "/"). A nil client uses http.DefaultClient.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{BaseURL: strings.TrimSuffix(baseURL, "/") + "/", Client: client}
}

func (s *HTTPStore) url(key storekey.Key) string {
	return s.BaseURL + string(key)
}

func (s *HTTPStore) Get(ctx context.Context, key storekey.Key) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("store: http get %q: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("store: http get %q: status %d", key, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("store: http get %q: %w", key, err)
	}
	return data, true, nil
}

func (s *HTTPStore) GetPartial(ctx context.Context, key storekey.Key, ranges []storekey.ByteRange) ([][]byte, bool, error) {
	size, exists, err := s.Size(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Resolve(size)
		if err != nil {
			return nil, false, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end-1))
		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, false, fmt.Errorf("store: http range get %q: %w", key, err)
		}
		if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, false, fmt.Errorf("store: http range get %q: status %d", key, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, false, fmt.Errorf("store: http range get %q: %w", key, err)
		}
		out[i] = data
	}
	return out, true, nil
}

func (s *HTTPStore) Size(ctx context.Context, key storekey.Key) (uint64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url(key), nil)
	if err != nil {
		return 0, false, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("store: http head %q: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return 0, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("store: http head %q: status %d", key, resp.StatusCode)
	}
	n, err := strconv.ParseUint(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("store: http head %q: missing Content-Length", key)
	}
	return n, true, nil
}

func (s *HTTPStore) Set(ctx context.Context, key storekey.Key, data []byte) error {
	return fmt.Errorf("%w: HTTPStore", ErrReadOnly)
}

func (s *HTTPStore) SetPartial(ctx context.Context, key storekey.Key, updates []PartialWrite) error {
	return fmt.Errorf("%w: HTTPStore", ErrReadOnly)
}

func (s *HTTPStore) Erase(ctx context.Context, key storekey.Key) error {
	return fmt.Errorf("%w: HTTPStore", ErrReadOnly)
}

func (s *HTTPStore) EraseAll(ctx context.Context, prefix storekey.Prefix) error {
	return fmt.Errorf("%w: HTTPStore", ErrReadOnly)
}
