package cdp

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"arcnet/internal/cookie"
	"arcnet/internal/headers"
	"arcnet/pkg/errx"

	"github.com/mafredri/cdp/protocol/fetch"
	"github.com/mafredri/cdp/protocol/network"
)

// FromCDPCookie 将 DevTools 协议的 Cookie 转换为领域 Cookie
// 以 "." 开头的域名表示可匹配子域名，否则为 host-only
func FromCDPCookie(c network.Cookie) *cookie.Cookie {
	out := cookie.New(c.Name, c.Value, cookie.WithPath(c.Path))
	out.Domain = strings.TrimPrefix(c.Domain, ".")
	out.HostOnly = c.Domain != "" && !strings.HasPrefix(c.Domain, ".")
	out.Secure = c.Secure
	out.HTTPOnly = c.HTTPOnly
	if !c.Session && c.Expires > 0 && !math.IsInf(c.Expires, 0) {
		sec, frac := math.Modf(c.Expires)
		out.SetExpires(time.Unix(int64(sec), int64(frac*1e9)))
	}
	return out
}

// FromCDPCookies 批量转换
func FromCDPCookies(list []network.Cookie) []*cookie.Cookie {
	out := make([]*cookie.Cookie, 0, len(list))
	for _, c := range list {
		if c.Name == "" {
			continue
		}
		out = append(out, FromCDPCookie(c))
	}
	return out
}

// ParseCookiesJSON 解析 Network.getAllCookies 的结果
// 接受 Cookie 数组，或带 cookies 字段的对象
func ParseCookiesJSON(data []byte) ([]network.Cookie, error) {
	data = bytes.TrimSpace(data)
	var list []network.Cookie
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, errx.Wrap(errx.CodeInvalidRecord, err, "解析 CDP Cookie 失败")
		}
		return list, nil
	}

	var reply struct {
		Cookies []network.Cookie `json:"cookies"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, errx.Wrap(errx.CodeInvalidRecord, err, "解析 CDP Cookie 失败")
	}
	return reply.Cookies, nil
}

// FromNetworkHeaders 将 network.Headers 转换为头部列表
func FromNetworkHeaders(h network.Headers) []headers.Field {
	if len(h) == 0 {
		return []headers.Field{}
	}
	var m map[string]string
	if err := json.Unmarshal(h, &m); err != nil {
		return []headers.Field{}
	}
	return headers.FromMap(m)
}

// ToHeaderEntries 将头部列表转换为 CDP Header 条目
func ToHeaderEntries(fields []headers.Field) []fetch.HeaderEntry {
	entries := make([]fetch.HeaderEntry, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, fetch.HeaderEntry{Name: f.Name, Value: f.Value})
	}
	return entries
}

// FromHeaderEntries 将 CDP Header 条目转换为头部列表
func FromHeaderEntries(entries []fetch.HeaderEntry) []headers.Field {
	fields := make([]headers.Field, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, headers.Field{Name: e.Name, Value: e.Value})
	}
	return headers.FromPairs(fields)
}
