package livesync

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"Driftline/internal/api/config"
)

// RemoteClient 同步层访问协作方接口的 HTTP 客户端
type RemoteClient struct {
	http *resty.Client
}

func NewRemoteClient(cfg config.EndpointsConfig, token string) *RemoteClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(timeout)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &RemoteClient{http: c}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Lookup 查发送者身份，未找到返回 (nil, nil)
func (c *RemoteClient) Lookup(ctx context.Context, userID uint64) (*SenderIdentity, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/user/%d/identity", userID))
	if err != nil {
		return nil, errors.Wrap(err, "identity lookup request failed")
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.Wrap(err, "identity lookup decode failed")
	}
	if env.Code == 404 {
		return nil, nil
	}
	if env.Code != 200 {
		return nil, errors.Errorf("identity lookup failed: %s", env.Message)
	}

	var ident SenderIdentity
	if err := json.Unmarshal(env.Data, &ident); err != nil {
		return nil, errors.Wrap(err, "identity lookup decode failed")
	}
	return &ident, nil
}

// FetchAggregate 拉取看板聚合快照，用户身份由令牌决定
func (c *RemoteClient) FetchAggregate(ctx context.Context, _ uint64) (*DashboardAggregate, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/dashboard/summary")
	if err != nil {
		return nil, errors.Wrap(err, "dashboard summary request failed")
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.Wrap(err, "dashboard summary decode failed")
	}
	if env.Code != 200 {
		return nil, errors.Errorf("dashboard summary failed: %s", env.Message)
	}

	var agg DashboardAggregate
	if err := json.Unmarshal(env.Data, &agg); err != nil {
		return nil, errors.Wrap(err, "dashboard summary decode failed")
	}
	return &agg, nil
}

// AsyncBeacon 即发即忘通道：派生协程发送，不等待结果
type AsyncBeacon struct {
	http *resty.Client
}

func NewAsyncBeacon(c *RemoteClient) *AsyncBeacon {
	return &AsyncBeacon{http: c.http}
}

func (a *AsyncBeacon) Send(_ context.Context, userID uint64) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = a.http.R().
			SetContext(ctx).
			SetBody(map[string]uint64{"user_id": userID}).
			Post("/api/activity/beacon")
	}()
	return nil
}

// SyncBeacon 同步兜底通道，阻塞到请求完成
type SyncBeacon struct {
	http *resty.Client
}

func NewSyncBeacon(c *RemoteClient) *SyncBeacon {
	return &SyncBeacon{http: c.http}
}

func (s *SyncBeacon) Send(ctx context.Context, userID uint64) error {
	_, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]uint64{"user_id": userID}).
		Post("/api/activity/beacon")
	return err
}
