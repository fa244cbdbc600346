// Package client はモバイルアプリ側からコレクションAPIを呼び出すためのクライアント
package client

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"gamecollection/models"
)

const defaultTimeout = 10 * time.Second

// APIError は2xx以外のレスポンス
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// IsNotFound は err が 404 レスポンスかどうかを返す
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *fiber.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New は baseURL（例: http://localhost:3001）に対するクライアントを返す
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		http: &fiber.Client{
			UserAgent:   "gamecollection-client",
			JSONEncoder: sonic.Marshal,
			JSONDecoder: sonic.Unmarshal,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) url(id ...int64) string {
	if len(id) == 0 {
		return c.baseURL + "/api"
	}
	return c.baseURL + "/api/" + strconv.FormatInt(id[0], 10)
}

func (c *Client) List() ([]models.Game, error) {
	var games []models.Game
	if err := c.do(c.http.Get(c.url()), &games); err != nil {
		return nil, err
	}
	if games == nil {
		games = []models.Game{}
	}
	return games, nil
}

func (c *Client) Get(id int64) (models.Game, error) {
	var game models.Game
	if err := c.do(c.http.Get(c.url(id)), &game); err != nil {
		return models.Game{}, err
	}
	return game, nil
}

// Create は登録して採番された id を返す
func (c *Client) Create(in models.GameInput) (int64, error) {
	var res models.CreateResponse
	if err := c.do(c.http.Post(c.url()).JSON(in), &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *Client) Update(id int64, in models.GameInput) error {
	return c.do(c.http.Put(c.url(id)).JSON(in), nil)
}

func (c *Client) Delete(id int64) error {
	return c.do(c.http.Delete(c.url(id)), nil)
}

func (c *Client) ReplaceAll(in []models.GameInput) error {
	if in == nil {
		in = []models.GameInput{}
	}
	return c.do(c.http.Put(c.url()).JSON(in), nil)
}

func (c *Client) DeleteAll() error {
	return c.do(c.http.Delete(c.url()), nil)
}

// do はリクエストを送り、成功時は out にデコードする。Bytes() がエージェントを解放する
func (c *Client) do(a *fiber.Agent, out any) error {
	code, body, errs := a.Timeout(c.timeout).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		var res models.ErrorResponse
		if err := sonic.Unmarshal(body, &res); err != nil || res.Error == "" {
			res.Error = http.StatusText(code)
		}
		return &APIError{Code: code, Message: res.Error}
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
