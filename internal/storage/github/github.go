// Package github implements a script store on a GitHub repository via
// the contents API, one JSON file per record under a configurable
// directory. Every write carries the current blob SHA, so concurrent
// writers of the same file are detected by the API and retried here.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scriptvault/internal/storage"
)

var _ storage.ScriptStore = &Store{}

// DefaultBaseURL is the public GitHub API endpoint. Tests point BaseURL
// at an httptest server instead.
const DefaultBaseURL = "https://api.github.com"

// Store is a GitHub-backed script store.
type Store struct {
	BaseURL string
	Token   string
	Owner   string
	Repo    string
	Dir     string

	client *http.Client
}

// New creates a store writing to the given repository. Records live as
// <dir>/<id>.json files.
func New(token, owner, repo, dir string) *Store {
	return &Store{
		BaseURL: DefaultBaseURL,
		Token:   token,
		Owner:   owner,
		Repo:    repo,
		Dir:     dir,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Store) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.BaseURL, s.Owner, s.Repo, path)
}

func (s *Store) recordPath(id string) string {
	return fmt.Sprintf("%s/%s.json", s.Dir, id)
}

func (s *Store) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// contentFile is the subset of the contents API response we use.
type contentFile struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type putPayload struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type deletePayload struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
}

// getFile fetches a file's decoded content and SHA. A 404 reports
// storage.ErrNotFound.
func (s *Store) getFile(ctx context.Context, path string) (content []byte, sha string, err error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.contentsURL(path), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", storage.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", apiError(resp)
	}

	var file contentFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, "", fmt.Errorf("decoding contents response: %w", err)
	}
	// The API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("decoding file content: %w", err)
	}
	return raw, file.SHA, nil
}

// putFile writes a file. sha is empty for creation and the current blob
// SHA for overwrite; a stale or missing SHA reports storage.ErrConflict.
func (s *Store) putFile(ctx context.Context, path, message string, content []byte, sha string) error {
	payload, err := json.Marshal(putPayload{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
	})
	if err != nil {
		return fmt.Errorf("encoding put payload: %w", err)
	}
	req, err := s.newRequest(ctx, http.MethodPut, s.contentsURL(path), payload)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// 422 when creating a file that exists, 409 when the SHA is stale.
		return storage.ErrConflict
	default:
		return apiError(resp)
	}
}

func apiError(resp *http.Response) error {
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusBadGateway {
		return fmt.Errorf("%w: github api status %s", storage.ErrUnavailable, resp.Status)
	}
	return fmt.Errorf("github api error: %s", resp.Status)
}

// Create persists a new record.
func (s *Store) Create(ctx context.Context, rec *storage.ScriptRecord) error {
	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	return s.putFile(ctx, s.recordPath(rec.ID), "Add script "+rec.ID, content, "")
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.ScriptRecord, error) {
	raw, _, err := s.getFile(ctx, s.recordPath(id))
	if err != nil {
		return nil, err
	}
	var rec storage.ScriptRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	rec.ID = id
	return &rec, nil
}

// Update re-reads the file, applies mutate, and writes it back with the
// SHA it read. If another writer moved the SHA in between, the write is
// rejected and the whole read-modify-write repeats. A rejection means a
// competing update landed, so the loop makes progress system-wide; it
// stops only when the context is done.
func (s *Store) Update(ctx context.Context, id string, mutate storage.Mutator) (*storage.ScriptRecord, error) {
	path := s.recordPath(id)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, sha, err := s.getFile(ctx, path)
		if err != nil {
			return nil, err
		}
		var rec storage.ScriptRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", id, err)
		}
		rec.ID = id

		if err := mutate(&rec); err != nil {
			return nil, err
		}

		content, err := json.MarshalIndent(&rec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding record: %w", err)
		}
		err = s.putFile(ctx, path, "Update script "+id, content, sha)
		if err == nil {
			return &rec, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, err
		}
	}
}

// Delete removes the record with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	path := s.recordPath(id)
	_, sha, err := s.getFile(ctx, path)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(deletePayload{Message: "Delete script " + id, SHA: sha})
	if err != nil {
		return fmt.Errorf("encoding delete payload: %w", err)
	}
	req, err := s.newRequest(ctx, http.MethodDelete, s.contentsURL(path), payload)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return storage.ErrNotFound
	default:
		return apiError(resp)
	}
}

// ListAll enumerates the scripts directory and fetches every record.
// Files that fail to load individually are skipped; a missing directory
// means an empty store.
func (s *Store) ListAll(ctx context.Context) ([]*storage.ScriptRecord, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.contentsURL(s.Dir), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []*storage.ScriptRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var files []contentFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, fmt.Errorf("decoding directory listing: %w", err)
	}

	out := []*storage.ScriptRecord{}
	for _, file := range files {
		if file.Type != "file" || !strings.HasSuffix(file.Name, ".json") {
			continue
		}
		id := strings.TrimSuffix(file.Name, ".json")
		rec, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListByOwner filters ListAll down to one owner; the contents API has
// no secondary index to query instead.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*storage.ScriptRecord, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []*storage.ScriptRecord{}
	for _, rec := range all {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}
