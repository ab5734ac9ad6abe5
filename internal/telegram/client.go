package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client calls the Telegram Bot API over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError represents a Bot API error response.
type APIError struct {
	Status      int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api: status %d: %s", e.Status, e.Description)
}

// NewClient constructs a Bot API client. baseURL is overridable for tests
// and defaults to the public endpoint.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Long polls block up to pollTimeout server-side, so the HTTP
		// timeout has to sit above it.
		httpClient: &http.Client{Timeout: 50 * time.Second},
	}
}

const pollTimeoutSeconds = 30

// GetUpdates long-polls for new updates after offset.
func (c *Client) GetUpdates(offset int64) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         pollTimeoutSeconds,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call("getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat with an optional keyboard.
func (c *Client) SendMessage(chatID int64, text string, markup *ReplyMarkup) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call("sendMessage", payload, nil)
}

// AnswerCallbackQuery acknowledges a pressed inline button.
func (c *Client) AnswerCallbackQuery(callbackID string) error {
	return c.call("answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil)
}

// GetFile resolves a file_id into a downloadable path.
func (c *Client) GetFile(fileID string) (File, error) {
	var file File
	if err := c.call("getFile", map[string]any{"file_id": fileID}, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

// DownloadFile fetches the file content for a path returned by GetFile.
func (c *Client) DownloadFile(filePath string) ([]byte, error) {
	u := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
	resp, err := c.httpClient.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Description: "file download failed"}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) call(method string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, url.PathEscape(c.token), method)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool            `json:"ok"`
		Description string          `json:"description"`
		Result      json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if resp.StatusCode >= 400 || !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Description: desc}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}
