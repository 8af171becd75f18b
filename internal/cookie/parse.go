package cookie

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Parse 解析 Set-Cookie / Cookie 头
// 每个非属性的 name=value 片段生成一个 Cookie，随后的属性片段归属于最近的 Cookie。
// 未知属性与非法片段直接忽略。多个 Set-Cookie 可以用换行分隔。
func Parse(header string) []*Cookie {
	list := make([]*Cookie, 0)
	if strings.TrimSpace(header) == "" {
		return list
	}

	now := time.Now()
	header = strings.ReplaceAll(header, "\r\n", "\n")
	for _, line := range strings.Split(header, "\n") {
		for _, part := range strings.Split(line, ";") {
			kv := strings.SplitN(part, "=", 2)
			name := decode(strings.TrimSpace(kv[0]))
			if name == "" {
				continue
			}
			value := ""
			if len(kv) == 2 {
				value = decode(strings.TrimSpace(kv[1]))
			}

			if isIgnored(name) {
				continue
			}
			if isAttribute(name) {
				if len(list) > 0 {
					applyAttribute(list[len(list)-1], strings.ToLower(name), value)
				}
				continue
			}

			list = append(list, &Cookie{
				Name:       name,
				Value:      value,
				Created:    now,
				LastAccess: now,
			})
		}
	}
	return list
}

// Join 将 Cookie 列表拼接为请求头 Cookie 的值
func Join(cookies []*Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, c.String())
	}
	return strings.Join(parts, "; ")
}

func isAttribute(name string) bool {
	switch strings.ToLower(name) {
	case "expires", "max-age", "domain", "path", "secure", "httponly":
		return true
	}
	return false
}

// isIgnored 已知但不参与匹配的属性
func isIgnored(name string) bool {
	switch strings.ToLower(name) {
	case "samesite", "priority", "partitioned", "sameparty", "version", "comment":
		return true
	}
	return false
}

func applyAttribute(c *Cookie, name, value string) {
	switch name {
	case "expires":
		// Max-Age 优先于 Expires
		if c.MaxAge == nil {
			c.SetExpires(value)
		}
	case "max-age":
		if n, err := strconv.Atoi(value); err == nil {
			c.SetMaxAge(n)
		}
	case "domain":
		domain := strings.TrimPrefix(value, ".")
		if domain != "" {
			c.Domain = domain
			c.HostOnly = false
		}
	case "path":
		if strings.HasPrefix(value, "/") {
			c.Path = value
		}
	case "secure":
		c.Secure = true
	case "httponly":
		c.HTTPOnly = true
	}
}

func decode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}

// encode 是 decode 的逆操作，只编码 Parse 会改变的字符：
// 百分号、分隔符、换行以及首尾空白；name 中的 "=" 也需要编码
func encode(s string, name bool) string {
	if s == "" {
		return s
	}
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '%', ch == ';', ch == '\r', ch == '\n', name && ch == '=',
			(i < start || i >= end) && isSpace(ch):
			fmt.Fprintf(&b, "%%%02X", ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
