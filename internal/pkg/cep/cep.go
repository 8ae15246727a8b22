package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
)

// Digits is the length of a complete postal code.
const Digits = 8

var (
	// ErrNotFound means the lookup service does not know the postal code.
	ErrNotFound = errors.New("postal code not found")
	// ErrInvalid means the input does not normalize to exactly Digits digits.
	ErrInvalid = errors.New("postal code must have 8 digits")
)

const (
	DefaultBaseURL = "https://viacep.com.br/ws"
	cacheKeyPrefix = "mapa:cep:"
)

// Address is the subset of the lookup response the form uses.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// Lookuper resolves a normalized postal code to an address.
type Lookuper interface {
	Lookup(ctx context.Context, digits string) (*Address, error)
}

// Client queries ViaCEP. Successful lookups are cached in redis when a client is set.
type Client struct {
	baseURL  string
	http     *http.Client
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewClient builds a ViaCEP client. rdb may be nil.
func NewClient(baseURL string, rdb *redis.Client, cacheTTL time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 8 * time.Second},
		rdb:      rdb,
		cacheTTL: cacheTTL,
	}
}

// Normalize strips every non-digit character.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Complete reports whether digits is a full postal code.
func Complete(digits string) bool {
	return len(digits) == Digits
}

// Format renders 8 digits as 00000-000; other inputs are returned unchanged.
func Format(digits string) string {
	if !Complete(digits) {
		return digits
	}
	return digits[:5] + "-" + digits[5:]
}

// Lookup fetches the address for an 8-digit postal code.
func (c *Client) Lookup(ctx context.Context, digits string) (*Address, error) {
	digits = Normalize(digits)
	if !Complete(digits) {
		return nil, ErrInvalid
	}
	if addr, ok := c.cached(ctx, digits); ok {
		return addr, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+digits+"/json/", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postal code lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("postal code lookup: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("postal code lookup: invalid response body")
	}
	res := gjson.ParseBytes(body)
	if erro := res.Get("erro"); erro.Exists() && (erro.Bool() || erro.String() == "true") {
		return nil, ErrNotFound
	}

	addr := &Address{
		CEP:          digits,
		Street:       strings.TrimSpace(res.Get("logradouro").String()),
		Neighborhood: strings.TrimSpace(res.Get("bairro").String()),
		City:         strings.TrimSpace(res.Get("localidade").String()),
		State:        strings.TrimSpace(res.Get("uf").String()),
	}
	c.store(ctx, addr)
	return addr, nil
}

func (c *Client) cached(ctx context.Context, digits string) (*Address, bool) {
	if c.rdb == nil || c.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+digits).Bytes()
	if err != nil {
		return nil, false
	}
	var addr Address
	if json.Unmarshal(raw, &addr) != nil {
		return nil, false
	}
	return &addr, true
}

func (c *Client) store(ctx context.Context, addr *Address) {
	if c.rdb == nil || c.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(addr)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, cacheKeyPrefix+addr.CEP, raw, c.cacheTTL).Err()
}
