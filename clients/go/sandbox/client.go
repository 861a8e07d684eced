// Package sandbox provides a client for the Simple Email Sandbox HTTP API.
package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Client is a sandbox API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	Group      string
	Address    string
	HTTPClient *http.Client
}

// Identity holds the default group and agent address filled in when a
// call leaves them blank.
type Identity struct {
	Group   string `json:"group"`
	Address string `json:"address"`
}

// NewClient creates a new sandbox client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("SANDBOX_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".sandbox")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadIdentity()
	return c
}

// LoadIdentity loads the default group/address pair from disk.
func (c *Client) LoadIdentity() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "agent.json"))
	if err != nil {
		return err
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}

	c.Group = id.Group
	c.Address = id.Address
	return nil
}

// SaveIdentity persists the default group/address pair to disk.
func (c *Client) SaveIdentity() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	data, _ := json.MarshalIndent(Identity{Group: c.Group, Address: c.Address}, "", "  ")
	return os.WriteFile(filepath.Join(c.ConfigDir, "agent.json"), data, 0600)
}

// APIError is an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sandbox error %d: %s", e.StatusCode, e.Message)
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Address != "" {
		req.Header.Set("X-Sandbox-Agent", c.Address)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return respBody, nil
}

// Email is a message as returned by the server.
type Email struct {
	MessageID string   `json:"message_id"`
	ThreadID  string   `json:"thread_id"`
	GroupID   string   `json:"group_id,omitempty"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at"`
}

// WriteRequest is the request body for sending a message. ThreadID is
// blank for a new thread.
type WriteRequest struct {
	GroupID  string   `json:"group_id"`
	From     string   `json:"from"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	ThreadID string   `json:"thread_id,omitempty"`
}

// WriteResponse is the response from sending a message.
type WriteResponse struct {
	MessageID        string `json:"message_id"`
	ThreadID         string `json:"thread_id"`
	NewThreadCreated bool   `json:"new_thread_created"`
}

// Write sends a message. Blank GroupID and From fall back to the
// stored identity.
func (c *Client) Write(req WriteRequest) (*WriteResponse, error) {
	if req.GroupID == "" {
		req.GroupID = c.Group
	}
	if req.From == "" {
		req.From = c.Address
	}

	body, _ := json.Marshal(req)
	respBody, err := c.doRequest("POST", "/emails", body)
	if err != nil {
		return nil, err
	}

	var resp WriteResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReplyRequest is the request body for replying within a thread.
// ReplyTo selects the message being answered; blank targets the latest.
type ReplyRequest struct {
	From    string `json:"from"`
	Body    string `json:"body"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// ReplyResponse is the response from a reply.
type ReplyResponse struct {
	MessageID string   `json:"message_id"`
	ThreadID  string   `json:"thread_id"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
}

// Reply answers the sender of a message in the thread. A blank from
// falls back to the stored identity.
func (c *Client) Reply(threadID, from, body, replyTo string) (*ReplyResponse, error) {
	return c.reply(threadID, from, body, replyTo, "/reply")
}

// ReplyAll answers everyone on a message in the thread. A blank from
// falls back to the stored identity.
func (c *Client) ReplyAll(threadID, from, body, replyTo string) (*ReplyResponse, error) {
	return c.reply(threadID, from, body, replyTo, "/reply-all")
}

func (c *Client) reply(threadID, from, body, replyTo, suffix string) (*ReplyResponse, error) {
	if from == "" {
		from = c.Address
	}

	reqBody, _ := json.Marshal(ReplyRequest{From: from, Body: body, ReplyTo: replyTo})
	respBody, err := c.doRequest("POST", "/threads/"+url.PathEscape(threadID)+suffix, reqBody)
	if err != nil {
		return nil, err
	}

	var resp ReplyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InboxResponse is the response from reading an inbox.
type InboxResponse struct {
	GroupID  string  `json:"group_id"`
	Agent    string  `json:"agent,omitempty"`
	Messages []Email `json:"messages"`
	Count    int     `json:"count"`
}

// Inbox retrieves recent messages in a group with full bodies. A blank
// agent returns the whole group's feed; a blank groupID falls back to
// the stored identity.
func (c *Client) Inbox(groupID, agent string, limit int) (*InboxResponse, error) {
	return c.inbox(groupID, agent, limit, 0, "/inbox")
}

// InboxPreview is Inbox with bodies truncated to previewLength runes
// (server default when previewLength is zero).
func (c *Client) InboxPreview(groupID, agent string, limit, previewLength int) (*InboxResponse, error) {
	return c.inbox(groupID, agent, limit, previewLength, "/inbox/preview")
}

func (c *Client) inbox(groupID, agent string, limit, previewLength int, suffix string) (*InboxResponse, error) {
	if groupID == "" {
		groupID = c.Group
	}

	path := fmt.Sprintf("/groups/%s%s?limit=%d", url.PathEscape(groupID), suffix, limit)
	if agent != "" {
		path += "&agent=" + url.QueryEscape(agent)
	}
	if previewLength > 0 {
		path += fmt.Sprintf("&preview_length=%d", previewLength)
	}

	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp InboxResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Message retrieves a single message by its id. threadID and groupID
// narrow the lookup when the id alone is ambiguous; either may be blank.
func (c *Client) Message(id, threadID, groupID string) (*Email, error) {
	path := "/messages/" + url.PathEscape(id)
	params := ""
	if threadID != "" {
		params = "thread_id=" + url.QueryEscape(threadID)
	}
	if groupID != "" {
		if params != "" {
			params += "&"
		}
		params += "group_id=" + url.QueryEscape(groupID)
	}
	if params != "" {
		path += "?" + params
	}

	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp Email
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ThreadResponse is the response from reading a thread.
type ThreadResponse struct {
	ThreadID  string  `json:"thread_id"`
	GroupID   string  `json:"group_id"`
	Subject   string  `json:"subject"`
	Creator   string  `json:"creator"`
	CreatedAt string  `json:"created_at"`
	Messages  []Email `json:"messages"`
}

// Thread retrieves a thread and its messages in sequence order.
func (c *Client) Thread(threadID string) (*ThreadResponse, error) {
	respBody, err := c.doRequest("GET", "/threads/"+url.PathEscape(threadID), nil)
	if err != nil {
		return nil, err
	}

	var resp ThreadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SentResponse is the response from listing an agent's sent messages.
type SentResponse struct {
	Agent    string  `json:"agent"`
	GroupID  string  `json:"group_id,omitempty"`
	Messages []Email `json:"messages"`
	Count    int     `json:"count"`
}

// SentBy retrieves messages sent by an agent, newest first. A blank
// groupID searches across groups.
func (c *Client) SentBy(agent, groupID string, limit int) (*SentResponse, error) {
	path := fmt.Sprintf("/agents/%s/messages?limit=%d", url.PathEscape(agent), limit)
	if groupID != "" {
		path += "&group_id=" + url.QueryEscape(groupID)
	}

	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp SentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Group represents a group and its roster.
type Group struct {
	ID         string   `json:"id"`
	Agents     []string `json:"agents"`
	AgentCount int      `json:"agent_count"`
	CreatedAt  string   `json:"created_at"`
}

// GroupsResponse is the response from listing groups.
type GroupsResponse struct {
	Groups []Group `json:"groups"`
	Count  int     `json:"count"`
}

// Groups lists all groups.
func (c *Client) Groups() (*GroupsResponse, error) {
	respBody, err := c.doRequest("GET", "/groups", nil)
	if err != nil {
		return nil, err
	}

	var resp GroupsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateGroupRequest is the request body for creating a group.
type CreateGroupRequest struct {
	ID     string   `json:"id"`
	Agents []string `json:"agents"`
}

// CreateGroup creates a group with an initial roster.
func (c *Client) CreateGroup(id string, agents []string) (*Group, error) {
	body, _ := json.Marshal(CreateGroupRequest{ID: id, Agents: agents})
	respBody, err := c.doRequest("POST", "/groups", body)
	if err != nil {
		return nil, err
	}

	var resp Group
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddAgents adds agents to a group's roster.
func (c *Client) AddAgents(groupID string, agents []string) (*Group, error) {
	body, _ := json.Marshal(struct {
		Agents []string `json:"agents"`
	}{Agents: agents})

	respBody, err := c.doRequest("POST", "/groups/"+url.PathEscape(groupID)+"/agents", body)
	if err != nil {
		return nil, err
	}

	var resp Group
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
