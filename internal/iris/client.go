package iris

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/kapu/duty-rotation-bot/internal/constants"
	"github.com/kapu/duty-rotation-bot/internal/domain"
	"github.com/kapu/duty-rotation-bot/pkg/errors"
	"go.uber.org/zap"
)

// ErrGroupNotFound is the cause of a failed group resolution.
var ErrGroupNotFound = stderrors.New("group not found")

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: constants.APIConfig.IrisTimeout,
		},
		logger: logger,
	}
}

// SendMessage posts text with mention spans to a group.
func (c *Client) SendMessage(ctx context.Context, room string, msg domain.OutboundMessage) ([]domain.SendResult, error) {
	req := ReplyRequest{
		Type: "text",
		Room: room,
		Data: msg.Text,
	}
	for _, m := range msg.Mentions {
		req.Mentions = append(req.Mentions, MentionJSON{
			Recipient: m.Member.Ref(),
			Number:    m.Member.Number,
			UUID:      m.Member.UUID,
			Start:     m.Start,
			Length:    m.Length,
		})
	}

	var resp ReplyResponse
	if err := c.doRequest(ctx, http.MethodPost, "/reply", req, &resp); err != nil {
		c.logger.Error("Failed to send message",
			zap.Error(err),
			zap.String("room", room),
		)
		return nil, classifySendError(err)
	}

	results := make([]domain.SendResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, domain.SendResult{
			Recipient: r.Recipient,
			Success:   r.Success,
			Error:     r.Error,
		})
	}
	return results, nil
}

// classifySendError separates refusals the caller can fix (unknown group,
// not a member, sending not allowed, unregistered recipient) from transport
// and payload failures.
func classifySendError(err error) error {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		return errors.NewUnexpectedError("Failed to send message", err)
	}
	reason, _ := apiErr.Context["reason"].(string)
	switch apiErr.StatusCode {
	case http.StatusNotFound:
		return errors.NewUserError("Group not found", apiErr.Context).WithCause(err)
	case http.StatusForbidden:
		if reason == "" {
			reason = "Not a group member or sending not allowed"
		}
		return errors.NewUserError(reason, apiErr.Context).WithCause(err)
	case http.StatusUnprocessableEntity:
		return errors.NewUserError("Recipient is not registered", apiErr.Context).WithCause(err)
	default:
		return errors.NewUnexpectedError("Failed to send message", err)
	}
}

// ListGroups returns every group the bridge account belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]*domain.GroupContext, error) {
	var groups []GroupJSON
	if err := c.doRequest(ctx, http.MethodGet, "/groups", nil, &groups); err != nil {
		c.logger.Error("Failed to list groups", zap.Error(err))
		return nil, errors.NewUnexpectedError("Failed to list groups", err)
	}

	out := make([]*domain.GroupContext, 0, len(groups))
	for _, g := range groups {
		members := make([]domain.Member, 0, len(g.Members))
		for _, m := range g.Members {
			members = append(members, domain.NewMember(m.Number, m.UUID))
		}
		out = append(out, domain.NewGroupContext(g.ID, g.Title, members))
	}
	return out, nil
}

// ResolveGroup returns the single group with groupID.
func (c *Client) ResolveGroup(ctx context.Context, groupID string) (*domain.GroupContext, error) {
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*domain.GroupContext
	for _, g := range groups {
		if g.ID == groupID {
			matches = append(matches, g)
		}
	}
	if len(matches) != 1 {
		return nil, errors.NewUserError("No group found for gid", map[string]any{
			"group_id": groupID,
			"matches":  len(matches),
		}).WithCause(ErrGroupNotFound)
	}
	return matches[0], nil
}

// Ping reports whether the bridge answers a group listing.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListGroups(ctx)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 502, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		ctxFields := map[string]any{
			"url":  url,
			"body": string(bodyBytes),
		}
		var errResp ErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil {
			if errResp.Reason != "" {
				ctxFields["reason"] = errResp.Reason
			} else if errResp.Error != "" {
				ctxFields["reason"] = errResp.Error
			}
		}
		return errors.NewAPIError(
			fmt.Sprintf("Iris API error: %s", resp.Status),
			resp.StatusCode,
			ctxFields,
		)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 502, map[string]any{
				"url": url,
			}).WithCause(err)
		}
	}

	return nil
}
