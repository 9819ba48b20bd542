// Package persistence is the HTTP client for the Event Craft persistence API.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"eventcraft/internal/domain/entity"
	"eventcraft/pkg/errors"
)

const defaultTimeout = 15 * time.Second

// Client talks to the /v1 persistence API. It satisfies messaging.Store and
// messaging.VendorLookup.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doRequest sends the request and returns the raw body of a 2xx response.
// Transport failures and 5xx become NETWORK_ERROR, 404 becomes NOT_FOUND and
// other 4xx keep the server's error code.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Internal("Failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Internal("Failed to build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Network("Unable to reach the server. Please try again.", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Network("Connection lost while reading the response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, statusError(method, path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

func statusError(method, path string, status int, body []byte) error {
	var env envelope
	_ = json.Unmarshal(body, &env)

	code, message := "", http.StatusText(status)
	if env.Error != nil {
		code = env.Error.Code
		if env.Error.Message != "" {
			message = env.Error.Message
		}
	}
	cause := fmt.Errorf("%s %s: status %d", method, path, status)

	switch {
	case status >= 500:
		return errors.Network(message, cause)
	case status == http.StatusNotFound:
		return errors.New(errors.CodeNotFound, message, status, cause)
	case code == "":
		code = strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
	return errors.New(code, message, status, cause)
}

// call performs a request and decodes the envelope's data into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	respBody, err := c.doRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return errors.Network("Unexpected response from the server", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Network("Unexpected response from the server", err)
	}
	return nil
}

func (c *Client) ListChats(ctx context.Context, actor entity.Actor) ([]*entity.Chat, error) {
	query := url.Values{}
	switch actor.Kind {
	case entity.ActorUser:
		query.Set("byUser", actor.ID)
	case entity.ActorVendor:
		query.Set("byVendor", actor.ID)
	default:
		return nil, errors.BadRequest("Unknown actor kind", nil)
	}

	var chats []*entity.Chat
	if err := c.call(ctx, http.MethodGet, "/chats", query, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *Client) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	var chat entity.Chat
	if err := c.call(ctx, http.MethodGet, "/chat/"+url.PathEscape(chatID), nil, nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) FindOrCreateChat(ctx context.Context, userID, vendorID string) (*entity.Chat, error) {
	body := map[string]string{"userId": userID, "vendorId": vendorID}

	var chat entity.Chat
	if err := c.call(ctx, http.MethodPost, "/chat", nil, body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) FindOrCreateVendorChat(ctx context.Context, vendorID, vendor2ID string) (*entity.Chat, error) {
	body := map[string]string{"vendorId": vendorID, "vendor2Id": vendor2ID}

	var chat entity.Chat
	if err := c.call(ctx, http.MethodPost, "/chat/vendor", nil, body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) EnsureSupportChat(ctx context.Context, actor entity.Actor) (*entity.Chat, error) {
	body := map[string]string{"actorKind": string(actor.Kind), "actorId": actor.ID}

	var chat entity.Chat
	if err := c.call(ctx, http.MethodPost, "/chat/support", nil, body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := c.call(ctx, http.MethodGet, "/messages", url.Values{"chatId": {chatID}}, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, message entity.NewMessage) (*entity.Message, error) {
	var sent entity.Message
	if err := c.call(ctx, http.MethodPost, "/message", nil, message, &sent); err != nil {
		return nil, err
	}
	return &sent, nil
}

// MarkSeen only looks at the status code; the acknowledgement body is plain
// text.
func (c *Client) MarkSeen(ctx context.Context, chatID, actorID string) error {
	body := map[string]string{"chatId": chatID, "actorId": actorID}
	_, err := c.doRequest(ctx, http.MethodPost, "/message/seen", nil, body)
	return err
}

func (c *Client) UnreadCount(ctx context.Context, chatID, actorID string) (int, error) {
	var out struct {
		UnreadCount int `json:"unreadCount"`
	}
	query := url.Values{"chatId": {chatID}, "actorId": {actorID}}
	if err := c.call(ctx, http.MethodGet, "/message/unreadCount", query, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

func (c *Client) VendorByUserID(ctx context.Context, userID string) (*entity.Vendor, error) {
	var vendor entity.Vendor
	if err := c.call(ctx, http.MethodGet, "/vendor", url.Values{"byUserId": {userID}}, nil, &vendor); err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (c *Client) RegisterUser(ctx context.Context, user entity.User) (*entity.User, error) {
	var created entity.User
	if err := c.call(ctx, http.MethodPost, "/user", nil, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) RegisterVendor(ctx context.Context, userID, companyName, category string) (*entity.Vendor, error) {
	body := map[string]string{"userId": userID, "companyName": companyName, "category": category}

	var vendor entity.Vendor
	if err := c.call(ctx, http.MethodPost, "/vendor", nil, body, &vendor); err != nil {
		return nil, err
	}
	return &vendor, nil
}
