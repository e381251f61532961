package attachment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ai-reqextract-be/pkg/extraction"

	gocache "github.com/patrickmn/go-cache"
)

// JamaStore fetches attachments from a Jama Connect REST API using an
// OAuth client-credentials token. Downloaded bytes are cached so the
// escalation chain can re-read an attachment without another round trip.
type JamaStore struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client

	cache *gocache.Cache

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ Store = &JamaStore{}

func NewJamaStore(baseURL, clientID, clientSecret string) *JamaStore {
	return &JamaStore{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
		cache: gocache.New(15*time.Minute, 30*time.Minute),
	}
}

// --- Request/Response structs (Internal to this package) ---

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type attachmentResponse struct {
	Data struct {
		ID     json.Number `json:"id"`
		Fields struct {
			Name string `json:"name"`
		} `json:"fields"`
		FileName string `json:"fileName"`
		MimeType string `json:"mimeType"`
		FileSize int64  `json:"fileSize"`
	} `json:"data"`
}

// --- Interface Implementation ---

func (s *JamaStore) GetAttachment(ctx context.Context, id string) (*extraction.Attachment, error) {
	if cached, found := s.cache.Get("meta:" + id); found {
		return cached.(*extraction.Attachment), nil
	}

	body, err := s.get(ctx, "/rest/v1/attachments/"+id)
	if err != nil {
		return nil, fmt.Errorf("get attachment %s: %w", id, err)
	}

	var resp attachmentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal attachment %s: %w", id, err)
	}

	name := resp.Data.FileName
	if name == "" {
		name = resp.Data.Fields.Name
	}
	att := &extraction.Attachment{
		ID:       id,
		FileName: name,
		Size:     resp.Data.FileSize,
		MimeType: resp.Data.MimeType,
	}
	s.cache.Set("meta:"+id, att, gocache.DefaultExpiration)
	return att, nil
}

func (s *JamaStore) Download(ctx context.Context, id string) ([]byte, error) {
	if cached, found := s.cache.Get("file:" + id); found {
		return cached.([]byte), nil
	}

	body, err := s.get(ctx, "/rest/v1/attachments/"+id+"/file")
	if err != nil {
		return nil, fmt.Errorf("download attachment %s: %w", id, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("download attachment %s: empty file body", id)
	}
	s.cache.Set("file:"+id, body, gocache.DefaultExpiration)
	return body, nil
}

func (s *JamaStore) get(ctx context.Context, path string) ([]byte, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jama error: status %d, body: %s", resp.StatusCode, truncateBody(body))
	}
	return body, nil
}

// token returns a cached OAuth access token, refreshing via the
// client-credentials grant when missing or near expiry.
func (s *JamaStore) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/rest/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(s.ClientID, s.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token error: status %d, body: %s", resp.StatusCode, truncateBody(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("unmarshal token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	s.accessToken = tok.AccessToken
	// Refresh one minute before the reported expiry.
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl > time.Minute {
		ttl -= time.Minute
	}
	s.tokenExpiry = time.Now().Add(ttl)
	return s.accessToken, nil
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
