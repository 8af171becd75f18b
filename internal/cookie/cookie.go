// Package cookie 实现 HTTP Cookie 的解析、序列化以及 RFC 6265 域名/路径匹配
package cookie

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Cookie 单个 HTTP Cookie
type Cookie struct {
	Name       string     `json:"name"`
	Value      string     `json:"value"`
	Domain     string     `json:"domain,omitempty"`
	Path       string     `json:"path,omitempty"`
	Expires    *time.Time `json:"expires,omitempty"` // 为空表示会话 Cookie
	MaxAge     *int       `json:"maxAge,omitempty"`
	Secure     bool       `json:"secure"`
	HTTPOnly   bool       `json:"httpOnly"`
	HostOnly   bool       `json:"hostOnly"`
	Created    time.Time  `json:"created"`
	LastAccess time.Time  `json:"lastAccess"`
}

// Option 构造选项
type Option func(*Cookie)

// WithDomain 设置域名
func WithDomain(domain string) Option {
	return func(c *Cookie) { c.Domain = domain }
}

// WithPath 设置路径
func WithPath(path string) Option {
	return func(c *Cookie) { c.Path = path }
}

// WithExpires 设置过期时间，接受 SetExpires 支持的所有类型
func WithExpires(v any) Option {
	return func(c *Cookie) { c.SetExpires(v) }
}

// WithMaxAge 设置 Max-Age（秒），会覆盖 Expires
func WithMaxAge(seconds int) Option {
	return func(c *Cookie) { c.SetMaxAge(seconds) }
}

// WithSecure 标记仅通过 HTTPS 发送
func WithSecure() Option {
	return func(c *Cookie) { c.Secure = true }
}

// WithHTTPOnly 标记 HttpOnly
func WithHTTPOnly() Option {
	return func(c *Cookie) { c.HTTPOnly = true }
}

// WithHostOnly 标记仅匹配完全一致的主机名
func WithHostOnly() Option {
	return func(c *Cookie) { c.HostOnly = true }
}

// New 创建 Cookie，路径默认为 "/"
func New(name, value string, opts ...Option) *Cookie {
	now := time.Now()
	c := &Cookie{
		Name:       name,
		Value:      value,
		Path:       "/",
		Created:    now,
		LastAccess: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// expiresLayouts 过期时间字符串支持的格式
var expiresLayouts = []string{
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 02-Jan-06 15:04:05 MST",
	time.RFC850,
	time.ANSIC,
	time.RFC3339Nano,
	time.RFC3339,
}

// SetExpires 设置过期时间
// 接受 time.Time、*time.Time、日期字符串以及毫秒时间戳；无法解析的值会清空过期时间
func (c *Cookie) SetExpires(v any) {
	c.Expires = normalizeExpires(v)
}

// SetMaxAge 设置 Max-Age 并据此重新计算过期时间
// 小于等于 0 表示立即过期
func (c *Cookie) SetMaxAge(seconds int) {
	c.MaxAge = &seconds
	var t time.Time
	if seconds <= 0 {
		t = time.Unix(0, 0).UTC()
	} else {
		secs := int64(seconds)
		if secs > maxAgeSeconds {
			secs = maxAgeSeconds
		}
		t = time.Now().Add(time.Duration(secs) * time.Second).UTC()
	}
	c.Expires = &t
}

// maxAgeSeconds 换算为 time.Duration 不溢出的最大秒数
const maxAgeSeconds = math.MaxInt64 / int64(time.Second)

func normalizeExpires(v any) *time.Time {
	var t time.Time
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		t = val
	case *time.Time:
		if val == nil {
			return nil
		}
		t = *val
	case string:
		parsed, ok := parseExpiresString(val)
		if !ok {
			return nil
		}
		t = parsed
	case int:
		t = time.UnixMilli(int64(val))
	case int32:
		t = time.UnixMilli(int64(val))
	case int64:
		t = time.UnixMilli(val)
	case uint64:
		if val > math.MaxInt64 {
			return nil
		}
		t = time.UnixMilli(int64(val))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		t = time.UnixMilli(int64(val))
	default:
		return nil
	}
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseExpiresString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	return time.Time{}, false
}

// IsSession 是否为会话 Cookie
func (c *Cookie) IsSession() bool {
	return c.Expires == nil
}

// IsExpired 在 now 时刻是否已过期，会话 Cookie 永不过期
func (c *Cookie) IsExpired(now time.Time) bool {
	return c.Expires != nil && !c.Expires.After(now)
}

// String 返回请求头 Cookie 使用的 name=value 形式
// 会被 Parse 改变的字符以百分号编码写出，保证 Parse(c.String()) 还原相同的名称与值
func (c *Cookie) String() string {
	return encode(c.Name, true) + "=" + encode(c.Value, false)
}

// Header 返回完整的 Set-Cookie 形式
func (c *Cookie) Header() string {
	var b strings.Builder
	b.WriteString(c.String())
	if c.Expires != nil {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(http.TimeFormat))
	}
	if c.MaxAge != nil {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(*c.MaxAge))
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(encode(c.Path, false))
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	return b.String()
}

// Clone 返回深拷贝
func (c *Cookie) Clone() *Cookie {
	cp := *c
	if c.Expires != nil {
		t := *c.Expires
		cp.Expires = &t
	}
	if c.MaxAge != nil {
		n := *c.MaxAge
		cp.MaxAge = &n
	}
	return &cp
}

// key 用于去重的 name/domain/path 三元组
func (c *Cookie) key() string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}
