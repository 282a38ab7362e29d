package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"jordanella.com/freedogs-go/internal/logging"
	"jordanella.com/freedogs-go/internal/proxypool"
)

// Backend paths
const (
	PathAuth        = "/miniapps/api/user/telegram_auth"
	PathGameInfo    = "/miniapps/api/user_game_level/GetGameInfo"
	PathCollectCoin = "/miniapps/api/user_game/collectCoin"
	PathTaskList    = "/miniapps/api/task/lists"
	PathFinishTask  = "/miniapps/api/task/finish_task"
)

// HeaderProfile is the static browser fingerprint sent with every request
type HeaderProfile struct {
	UserAgent      string
	AcceptLanguage string
	Origin         string
}

func (h HeaderProfile) headers() map[string]string {
	return map[string]string{
		"Accept":             "application/json, text/plain, */*",
		"Accept-Language":    h.AcceptLanguage,
		"Content-Type":       "application/x-www-form-urlencoded; charset=UTF-8",
		"Origin":             h.Origin,
		"Referer":            strings.TrimSuffix(h.Origin, "/") + "/",
		"Sec-Ch-Ua":          `"Not/A)Brand";v="99", "Google Chrome";v="115", "Chromium";v="115"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-site",
		"User-Agent":         h.UserAgent,
	}
}

// Options configures a backend client
type Options struct {
	BaseURL        string
	InvitationCode string
	Headers        HeaderProfile
	Proxy          *proxypool.Proxy // nil for a direct connection
	Timeout        time.Duration
	Logger         *logging.Logger
}

// Client talks to the mini-app backend through one egress
type Client struct {
	http           *resty.Client
	invitationCode string
	logger         *logging.Logger
}

// NewClient creates a client bound to opts.Proxy
func NewClient(opts Options) (*Client, error) {
	tr, err := newTransport(opts.Proxy)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	rc := resty.New().
		SetTransport(tr).
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeaders(opts.Headers.headers())

	return &Client{
		http:           rc,
		invitationCode: opts.InvitationCode,
		logger:         logger,
	}, nil
}

// encodeInitData escapes only the separators so the backend sees the line as one query value
func encodeInitData(raw string) string {
	return strings.NewReplacer("&", "%26", "=", "%3D").Replace(raw)
}

// Authenticate exchanges the raw credential line and the invitation code for a bearer token
func (c *Client) Authenticate(ctx context.Context, initData string) (string, error) {
	path := fmt.Sprintf("%s?invitationCode=%s&initData=%s", PathAuth, c.invitationCode, encodeInitData(initData))

	var data authData
	if err := c.do(ctx, "Auth", http.MethodPost, path, "", nil, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

// GetGameInfo fetches the coin pool and click counters
func (c *Client) GetGameInfo(ctx context.Context, token string) (*GameInfo, error) {
	var info GameInfo
	if err := c.do(ctx, "GetGameInfo", http.MethodGet, PathGameInfo, token, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CollectCoin submits a collection with its checksum
func (c *Client) CollectCoin(ctx context.Context, token string, req CollectRequest) error {
	form := map[string]string{
		"collectAmount": strconv.FormatInt(req.Amount, 10),
		"hashCode":      req.Checksum,
		"collectSeqNo":  strconv.FormatInt(req.SeqNo, 10),
	}
	return c.do(ctx, "CollectCoin", http.MethodPost, PathCollectCoin, token, form, nil)
}

// ListTasks returns every task the backend lists, finished or not
func (c *Client) ListTasks(ctx context.Context, token string) ([]Task, error) {
	var data taskListData
	if err := c.do(ctx, "ListTasks", http.MethodGet, PathTaskList, token, nil, &data); err != nil {
		return nil, err
	}
	return data.Lists, nil
}

// FinishTask marks a task complete
func (c *Client) FinishTask(ctx context.Context, token string, taskID int64) error {
	path := fmt.Sprintf("%s?id=%d", PathFinishTask, taskID)
	return c.do(ctx, "FinishTask", http.MethodPost, path, token, nil, nil)
}

// do sends one request and unwraps the {code, msg, data} envelope into out
func (c *Client) do(ctx context.Context, op, method, path, token string, form map[string]string, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if form != nil {
		req.SetFormData(form)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &Error{Op: op, Code: CodeTransport, Err: err}
	}

	c.logger.DebugWithContext("backend response", map[string]interface{}{
		"op":     op,
		"status": resp.StatusCode(),
		"took":   resp.Time().String(),
	})

	if resp.StatusCode() != http.StatusOK {
		return &Error{
			Op:      op,
			Code:    int64(resp.StatusCode()),
			Message: fmt.Sprintf("request failed with status code %d", resp.StatusCode()),
		}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &Error{Op: op, Code: CodeTransport, Err: fmt.Errorf("invalid response body: %w", err)}
	}

	if env.Code == nil {
		return &Error{Op: op, Code: CodeTransport, Err: fmt.Errorf("response has no code field")}
	}
	if *env.Code != 0 {
		msg := env.Msg
		if msg == "" {
			msg = "request rejected"
		}
		return &Error{Op: op, Code: env.Code.Int64(), Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Op: op, Code: CodeTransport, Err: fmt.Errorf("invalid response data: %w", err)}
	}
	return nil
}
