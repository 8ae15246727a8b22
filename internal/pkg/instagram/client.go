package instagram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGraphURL     = "https://graph.facebook.com"
	DefaultGraphVersion = "v21.0"
	// MaxCarouselItems is the Graph API limit for carousel children.
	MaxCarouselItems = 10
)

var (
	ErrNotConfigured = errors.New("instagram publishing is not configured")
	ErrNoImages      = errors.New("post has no generated images")
	ErrTooManyImages = fmt.Errorf("carousel accepts at most %d images", MaxCarouselItems)
)

// GraphError is an error payload returned by the Graph API.
type GraphError struct {
	Status  int
	Code    int64
	Type    string
	Message string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api: status=%d code=%d type=%s: %s", e.Status, e.Code, e.Type, e.Message)
}

// Result identifies a published media object.
type Result struct {
	MediaID   string `json:"media_id"`
	Permalink string `json:"permalink"`
}

// Publisher publishes images to a professional Instagram account.
type Publisher interface {
	Publish(ctx context.Context, imageURLs []string, caption string) (*Result, error)
}

// Config selects the account and credentials.
type Config struct {
	UserID      string
	AccessToken string
	GraphURL    string
	Version     string
}

// Client talks to the Instagram Graph content publishing endpoints.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client; missing credentials surface as ErrNotConfigured on Publish.
func NewClient(cfg Config) *Client {
	cfg.UserID = strings.TrimSpace(cfg.UserID)
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.GraphURL = strings.TrimRight(strings.TrimSpace(cfg.GraphURL), "/")
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	cfg.Version = strings.Trim(strings.TrimSpace(cfg.Version), "/")
	if cfg.Version == "" {
		cfg.Version = DefaultGraphVersion
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: 60 * time.Second}}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.UserID != "" && c.cfg.AccessToken != ""
}

// Publish posts a single image, or a carousel when more than one URL is given,
// then resolves the permalink.
func (c *Client) Publish(ctx context.Context, imageURLs []string, caption string) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	switch n := len(imageURLs); {
	case n == 0:
		return nil, ErrNoImages
	case n > MaxCarouselItems:
		return nil, ErrTooManyImages
	}

	var (
		creationID string
		err        error
	)
	if len(imageURLs) == 1 {
		creationID, err = c.createContainer(ctx, url.Values{
			"image_url": {imageURLs[0]},
			"caption":   {caption},
		})
	} else {
		creationID, err = c.createCarousel(ctx, imageURLs, caption)
	}
	if err != nil {
		return nil, err
	}

	mediaID, err := c.publishContainer(ctx, creationID)
	if err != nil {
		return nil, err
	}

	permalink, err := c.permalink(ctx, mediaID)
	if err != nil {
		// The media is live at this point; a missing permalink is not a publish failure.
		permalink = ""
	}
	return &Result{MediaID: mediaID, Permalink: permalink}, nil
}

func (c *Client) createCarousel(ctx context.Context, imageURLs []string, caption string) (string, error) {
	children := make([]string, len(imageURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, imageURL := range imageURLs {
		g.Go(func() error {
			id, err := c.createContainer(gctx, url.Values{
				"image_url":        {imageURL},
				"is_carousel_item": {"true"},
			})
			if err != nil {
				return fmt.Errorf("carousel item %d: %w", i+1, err)
			}
			children[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	return c.createContainer(ctx, url.Values{
		"media_type": {"CAROUSEL"},
		"children":   {strings.Join(children, ",")},
		"caption":    {caption},
	})
}

func (c *Client) createContainer(ctx context.Context, form url.Values) (string, error) {
	res, err := c.do(ctx, http.MethodPost, c.cfg.UserID+"/media", form)
	if err != nil {
		return "", err
	}
	id := res.Get("id").String()
	if id == "" {
		return "", errors.New("graph api: media container has no id")
	}
	return id, nil
}

func (c *Client) publishContainer(ctx context.Context, creationID string) (string, error) {
	res, err := c.do(ctx, http.MethodPost, c.cfg.UserID+"/media_publish", url.Values{
		"creation_id": {creationID},
	})
	if err != nil {
		return "", err
	}
	id := res.Get("id").String()
	if id == "" {
		return "", errors.New("graph api: publish returned no media id")
	}
	return id, nil
}

func (c *Client) permalink(ctx context.Context, mediaID string) (string, error) {
	res, err := c.do(ctx, http.MethodGet, mediaID, url.Values{"fields": {"permalink"}})
	if err != nil {
		return "", err
	}
	return res.Get("permalink").String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) (gjson.Result, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.cfg.AccessToken)
	endpoint := c.cfg.GraphURL + "/" + c.cfg.Version + "/" + strings.TrimLeft(path, "/")

	var (
		req *http.Request
		err error
	)
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return gjson.Result{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("graph api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, err
	}
	res := gjson.ParseBytes(body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || res.Get("error").Exists() {
		return gjson.Result{}, &GraphError{
			Status:  resp.StatusCode,
			Code:    res.Get("error.code").Int(),
			Type:    res.Get("error.type").String(),
			Message: strings.TrimSpace(res.Get("error.message").String()),
		}
	}
	return res, nil
}
