package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bodrovis/chimpex/utils"
)

type Member struct {
	ID           string         `json:"id,omitempty"`
	EmailAddress string         `json:"email_address"`
	Status       string         `json:"status"`
	MergeFields  map[string]any `json:"merge_fields,omitempty"`
}

type pingResponse struct {
	HealthStatus string `json:"health_status"`
}

// Ping checks the key and returns the API health status.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var pr pingResponse
	if err := c.do(ctx, http.MethodGet, "ping", nil, &pr); err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	return pr.HealthStatus, nil
}

// AddListMember subscribes m to the audience listID.
func (c *Client) AddListMember(ctx context.Context, listID string, m Member) (*Member, error) {
	if strings.TrimSpace(listID) == "" {
		return nil, fmt.Errorf("add list member: list id is required")
	}
	if strings.TrimSpace(m.EmailAddress) == "" {
		return nil, fmt.Errorf("add list member: email address is required")
	}
	if m.Status == "" {
		m.Status = "subscribed"
	}

	buf, err := utils.EncodeJSONBody(m)
	if err != nil {
		return nil, fmt.Errorf("add list member: %w", err)
	}

	var out Member
	path := "lists/" + url.PathEscape(listID) + "/members"
	if err := c.do(ctx, http.MethodPost, path, buf, &out); err != nil {
		return nil, fmt.Errorf("add list member: %w", err)
	}
	return &out, nil
}
