// Package service 组合 Cookie 解析、匹配与持久化，供命令行使用
package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"arcnet/internal/cookie"
	"arcnet/internal/logger"
	"arcnet/pkg/errx"

	"golang.org/x/net/publicsuffix"
)

// Store Cookie 持久化接口
type Store interface {
	Save(ctx context.Context, cookies []*cookie.Cookie) error
	SaveAndPurge(ctx context.Context, cookies []*cookie.Cookie, now time.Time) (int64, error)
	FindForURL(ctx context.Context, u *url.URL, now time.Time) ([]*cookie.Cookie, error)
	List(ctx context.Context, domain string) ([]*cookie.Cookie, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteSession(ctx context.Context) (int64, error)
	DeleteByDomain(ctx context.Context, domain string) (int64, error)
	ClearAll(ctx context.Context) (int64, error)
}

// CookieService Cookie 存取服务
type CookieService struct {
	store Store
	log   logger.Logger
	now   func() time.Time
}

// Option 服务选项
type Option func(*CookieService)

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *CookieService) {
		if now != nil {
			s.now = now
		}
	}
}

// New 创建 Cookie 服务
func New(store Store, l logger.Logger, opts ...Option) *CookieService {
	if l == nil {
		l = logger.NewNop()
	}
	s := &CookieService{store: store, log: l, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreResponse 保存响应 rawURL 返回的 Set-Cookie 头
// domain 与请求主机不匹配或为公共后缀的 Cookie 被拒绝；
// 写入与删除过期记录在同一事务中完成，因此已过期的 Cookie 会删除已保存的同名记录
func (s *CookieService) StoreResponse(ctx context.Context, rawURL string, setCookie []string) ([]*cookie.Cookie, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	accepted := make([]*cookie.Cookie, 0, len(setCookie))
	for _, header := range setCookie {
		for _, c := range cookie.FillAttributes(u, cookie.Parse(header)) {
			c.Domain = strings.ToLower(c.Domain)
			if !s.acceptDomain(c, u) {
				continue
			}
			c.Created = now
			c.LastAccess = now
			accepted = append(accepted, c)
		}
	}

	purged, err := s.store.SaveAndPurge(ctx, accepted, now)
	if err != nil {
		return nil, errx.Wrap(errx.CodeStorage, err, "保存 Cookie 失败")
	}
	s.log.Debug("保存响应 Cookie", "url", rawURL, "count", len(accepted), "purged", purged)
	return accepted, nil
}

// acceptDomain 按 RFC 6265 5.3 第 5、6 步检查 Domain 属性
// 等于请求主机的公共后缀按 host-only 处理，其余公共后缀拒绝
func (s *CookieService) acceptDomain(c *cookie.Cookie, u *url.URL) bool {
	if c.HostOnly {
		return true
	}
	host := u.Hostname()
	if ps, _ := publicsuffix.PublicSuffix(c.Domain); ps == c.Domain {
		if c.Domain != host {
			s.log.Warn("拒绝公共后缀域名的 Cookie", "name", c.Name, "domain", c.Domain, "host", host)
			return false
		}
		c.HostOnly = true
		return true
	}
	if !cookie.MatchesDomain(c.Domain, false, u) {
		s.log.Warn("拒绝与请求域名不匹配的 Cookie", "name", c.Name, "domain", c.Domain, "host", host)
		return false
	}
	return true
}

// CookiesFor 返回应随请求 rawURL 发送的 Cookie
func (s *CookieService) CookiesFor(ctx context.Context, rawURL string) ([]*cookie.Cookie, error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}
	list, err := s.store.FindForURL(ctx, u, s.now())
	if err != nil {
		return nil, errx.Wrap(errx.CodeStorage, err, "查询 Cookie 失败")
	}
	return list, nil
}

// CookieHeader 返回请求 rawURL 使用的 Cookie 头，没有匹配时为空字符串
func (s *CookieService) CookieHeader(ctx context.Context, rawURL string) (string, error) {
	list, err := s.CookiesFor(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return cookie.Join(list), nil
}

// MergeRequest 将已保存的 Cookie 合并到请求已有的 Cookie 头
// 请求中显式设置的同名 Cookie 优先
func (s *CookieService) MergeRequest(ctx context.Context, rawURL, header string) (string, error) {
	stored, err := s.CookiesFor(ctx, rawURL)
	if err != nil {
		return "", err
	}
	jar := cookie.NewJarFromCookies(stored, rawURL)
	for _, c := range cookie.Parse(header) {
		jar.Remove(c.Name)
		jar.Set(c)
	}
	return jar.String(), nil
}

// Import 导入外部来源的 Cookie（例如浏览器导出）
// 缺少 domain 的 Cookie 被跳过
func (s *CookieService) Import(ctx context.Context, cookies []*cookie.Cookie) (int, error) {
	now := s.now()
	valid := make([]*cookie.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" || c.Domain == "" {
			continue
		}
		cp := c.Clone()
		if cp.Path == "" {
			cp.Path = "/"
		}
		if cp.Created.IsZero() {
			cp.Created = now
		}
		if cp.IsExpired(now) {
			continue
		}
		valid = append(valid, cp)
	}
	if err := s.store.Save(ctx, valid); err != nil {
		return 0, errx.Wrap(errx.CodeStorage, err, "导入 Cookie 失败")
	}
	s.log.Info("导入 Cookie", "total", len(cookies), "imported", len(valid))
	return len(valid), nil
}

// List 列出已保存的 Cookie，domain 为空时列出全部
func (s *CookieService) List(ctx context.Context, domain string) ([]*cookie.Cookie, error) {
	list, err := s.store.List(ctx, domain)
	if err != nil {
		return nil, errx.Wrap(errx.CodeStorage, err, "查询 Cookie 失败")
	}
	return list, nil
}

// Prune 删除过期 Cookie，session 为 true 时同时删除会话 Cookie
func (s *CookieService) Prune(ctx context.Context, session bool) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, errx.Wrap(errx.CodeStorage, err, "删除过期 Cookie 失败")
	}
	if session {
		m, err := s.store.DeleteSession(ctx)
		if err != nil {
			return n, errx.Wrap(errx.CodeStorage, err, "删除会话 Cookie 失败")
		}
		n += m
	}
	s.log.Info("清理 Cookie", "removed", n, "session", session)
	return n, nil
}

// Clear 删除指定域名的 Cookie，domain 为空时清空全部
func (s *CookieService) Clear(ctx context.Context, domain string) (int64, error) {
	var (
		n   int64
		err error
	)
	if domain == "" {
		n, err = s.store.ClearAll(ctx)
	} else {
		n, err = s.store.DeleteByDomain(ctx, domain)
	}
	if err != nil {
		return 0, errx.Wrap(errx.CodeStorage, err, "删除 Cookie 失败")
	}
	return n, nil
}

func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, errx.Wrap(errx.CodeInvalidURL, err, rawURL)
	}
	if u.Hostname() == "" {
		return nil, errx.New(errx.CodeInvalidURL, rawURL)
	}
	// 主机名不区分大小写
	u.Host = strings.ToLower(u.Host)
	return u, nil
}
