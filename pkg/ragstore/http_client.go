package ragstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// HTTPClient talks to an AnythingLLM-compatible workspace API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Ensure HTTPClient implements Client
var _ Client = &HTTPClient{}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

type createWorkspaceResponse struct {
	Workspace struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	} `json:"workspace"`
}

type uploadResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Documents []struct {
		Location string `json:"location"`
	} `json:"documents"`
}

type updateEmbeddingsRequest struct {
	Adds []string `json:"adds"`
}

type rawTextRequest struct {
	TextContent     string            `json:"textContent"`
	Metadata        map[string]string `json:"metadata"`
	AddToWorkspaces string            `json:"addToWorkspaces,omitempty"`
}

type workspaceDetailResponse struct {
	Workspace []struct {
		Slug      string `json:"slug"`
		Documents []struct {
			DocPath string `json:"docpath"`
		} `json:"documents"`
	} `json:"workspace"`
}

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type chatResponse struct {
	TextResponse string `json:"textResponse"`
	Error        string `json:"error"`
}

type systemDocumentsResponse struct {
	LocalFiles struct {
		Items []struct {
			Name  string `json:"name"`
			Items []struct {
				Name string `json:"name"`
			} `json:"items"`
		} `json:"items"`
	} `json:"localFiles"`
}

// --- Interface Implementation ---

func (c *HTTPClient) CreateWorkspace(ctx context.Context, name string) (*Workspace, error) {
	var out createWorkspaceResponse
	err := c.doJSON(ctx, "POST", "/api/v1/workspace/new", createWorkspaceRequest{Name: name}, &out)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if out.Workspace.Slug == "" {
		return nil, fmt.Errorf("create workspace: backend returned empty slug")
	}
	return &Workspace{Slug: out.Workspace.Slug, Name: out.Workspace.Name}, nil
}

func (c *HTTPClient) DeleteWorkspace(ctx context.Context, slug string) error {
	return c.doJSON(ctx, "DELETE", "/api/v1/workspace/"+slug, nil, nil)
}

func (c *HTTPClient) UploadDocument(ctx context.Context, slug, fileName string, content []byte) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/v1/document/upload", &body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var up uploadResponse
	if err := json.Unmarshal(bodyBytes, &up); err != nil {
		return fmt.Errorf("unmarshal upload response: %w", err)
	}
	if !up.Success && up.Error != "" {
		return fmt.Errorf("upload rejected: %s", up.Error)
	}
	if len(up.Documents) == 0 {
		return fmt.Errorf("upload accepted but no document location returned")
	}

	// Attach the processed document to the workspace so embedding starts.
	adds := make([]string, 0, len(up.Documents))
	for _, d := range up.Documents {
		adds = append(adds, d.Location)
	}
	err = c.doJSON(ctx, "POST", "/api/v1/workspace/"+slug+"/update-embeddings", updateEmbeddingsRequest{Adds: adds}, nil)
	if err != nil {
		return fmt.Errorf("update embeddings: %w", err)
	}
	return nil
}

func (c *HTTPClient) UploadRawText(ctx context.Context, slug, title, text string) error {
	req := rawTextRequest{
		TextContent: text,
		Metadata: map[string]string{
			"title": title,
		},
		AddToWorkspaces: slug,
	}
	if err := c.doJSON(ctx, "POST", "/api/v1/document/raw-text", req, nil); err != nil {
		return fmt.Errorf("raw text upload: %w", err)
	}
	return nil
}

func (c *HTTPClient) CountDocuments(ctx context.Context, slug string) (int, error) {
	var out workspaceDetailResponse
	if err := c.doJSON(ctx, "GET", "/api/v1/workspace/"+slug, nil, &out); err != nil {
		return 0, fmt.Errorf("get workspace: %w", err)
	}
	count := 0
	for _, ws := range out.Workspace {
		if ws.Slug == slug || len(out.Workspace) == 1 {
			count += len(ws.Documents)
		}
	}
	return count, nil
}

func (c *HTTPClient) Chat(ctx context.Context, slug, prompt string, timeout time.Duration) (string, error) {
	chatCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		chatCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var out chatResponse
	err := c.doJSON(chatCtx, "POST", "/api/v1/workspace/"+slug+"/chat", chatRequest{Message: prompt, Mode: "query"}, &out)
	if err != nil {
		return "", fmt.Errorf("workspace chat: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("workspace chat: backend error: %s", out.Error)
	}
	return out.TextResponse, nil
}

func (c *HTTPClient) Diagnose(ctx context.Context) (string, error) {
	var out systemDocumentsResponse
	if err := c.doJSON(ctx, "GET", "/api/v1/documents", nil, &out); err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	total := 0
	report := "document processor folders:"
	for _, folder := range out.LocalFiles.Items {
		report += fmt.Sprintf(" %s=%d", folder.Name, len(folder.Items))
		total += len(folder.Items)
	}
	report += fmt.Sprintf(" (total %d)", total)
	return report, nil
}

// doJSON sends a JSON request and decodes the JSON response into out (if non-nil).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	if out != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
