package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"roombook/pkg/middleware"
	"roombook/pkg/model"
)

type Metadata struct {
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

// ViewingClient calls the viewings API on behalf of one user.
type ViewingClient struct {
	httpClient *HttpClient
}

func NewViewingClient(baseURL, userID string) *ViewingClient {
	c := NewHttpClient(baseURL)
	if userID != "" {
		c.Headers[middleware.HeaderUserID] = userID
	}
	return &ViewingClient{httpClient: c}
}

// Create books a viewing. A non-empty idempotencyKey makes retries safe.
func (c *ViewingClient) Create(ctx context.Context, viewing *model.Viewing, idempotencyKey string) (*model.Viewing, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{middleware.HeaderIdempotencyKey: idempotencyKey}
	}

	resp, err := c.httpClient.POST(ctx, "/api/v1/viewings", viewing, headers)
	if err != nil {
		return nil, err
	}
	return decodeData[model.Viewing](resp)
}

func (c *ViewingClient) GetByID(ctx context.Context, id string) (*model.Viewing, error) {
	resp, err := c.httpClient.GET(ctx, viewingPath(id))
	if err != nil {
		return nil, err
	}
	return decodeData[model.Viewing](resp)
}

func (c *ViewingClient) Update(ctx context.Context, id string, updates *model.ViewingUpdate) (*model.Viewing, error) {
	resp, err := c.httpClient.PATCH(ctx, viewingPath(id), updates)
	if err != nil {
		return nil, err
	}
	return decodeData[model.Viewing](resp)
}

func (c *ViewingClient) Cancel(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, viewingPath(id))
	if err != nil {
		return err
	}
	return resp.Err()
}

func (c *ViewingClient) CalendarEvent(ctx context.Context, id string) (*model.CalendarEvent, error) {
	resp, err := c.httpClient.GET(ctx, viewingPath(id)+"/event")
	if err != nil {
		return nil, err
	}
	return decodeData[model.CalendarEvent](resp)
}

func (c *ViewingClient) ListByRoom(ctx context.Context, roomID string, from, to *time.Time, limit int, offset int64) ([]*model.Viewing, *Metadata, error) {
	q := timeRange(from, to)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.FormatInt(offset, 10))

	resp, err := c.httpClient.GET(ctx, roomPath(roomID, "viewings")+"?"+q.Encode())
	if err != nil {
		return nil, nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, nil, err
	}

	var wrapper struct {
		Data []*model.Viewing `json:"data"`
		Metadata
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode viewing list: %w", err)
	}
	return wrapper.Data, &wrapper.Metadata, nil
}

func (c *ViewingClient) RoomCalendar(ctx context.Context, roomID string, from, to *time.Time) ([]model.CalendarEvent, error) {
	path := roomPath(roomID, "calendar")
	if q := timeRange(from, to); len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.httpClient.GET(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var events []model.CalendarEvent
	if err := resp.DecodeJSON(&events); err != nil {
		return nil, fmt.Errorf("could not decode calendar: %w", err)
	}
	return events, nil
}

func (c *ViewingClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	return c.httpClient.WaitForHealthy(ctx, maxWait)
}

func decodeData[T any](resp *Response) (*T, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := resp.DecodeJSON(&wrapper); err != nil {
		return nil, fmt.Errorf("could not decode response wrapper: %w", err)
	}

	var out T
	if err := json.Unmarshal(wrapper.Data, &out); err != nil {
		return nil, fmt.Errorf("could not decode response data: %w", err)
	}
	return &out, nil
}

func viewingPath(id string) string {
	return "/api/v1/viewings/id/" + url.PathEscape(id)
}

func roomPath(roomID, resource string) string {
	return "/api/v1/rooms/" + url.PathEscape(roomID) + "/" + resource
}

func timeRange(from, to *time.Time) url.Values {
	q := url.Values{}
	if from != nil {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if to != nil {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
	return q
}
