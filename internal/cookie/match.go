package cookie

import (
	"net/url"
	"strings"
)

// MatchesDomain 实现 RFC 6265 5.1.3 的 domain-match
// domain 为空或 u 为空时不匹配；不做大小写或 IDNA 归一化
func MatchesDomain(domain string, hostOnly bool, u *url.URL) bool {
	if domain == "" || u == nil {
		return false
	}
	host := u.Hostname()
	if host == domain {
		return true
	}
	if hostOnly {
		return false
	}
	return strings.HasSuffix(host, "."+domain)
}

// MatchesPath 实现 RFC 6265 5.1.4 的 path-match
func MatchesPath(cookiePath string, u *url.URL) bool {
	if u == nil || cookiePath == "" {
		return false
	}
	if cookiePath == "/" {
		return true
	}
	requestPath := u.Path
	if requestPath == "" {
		requestPath = "/"
	}
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	if strings.HasSuffix(cookiePath, "/") {
		return true
	}
	return requestPath[len(cookiePath)] == '/'
}

// DefaultPath 计算 URL 的默认 Cookie 路径（RFC 6265 5.1.4）
func DefaultPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "/"
	}
	return defaultPath(u)
}

func defaultPath(u *url.URL) string {
	if u == nil {
		return "/"
	}
	p := u.Path
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

// FillAttributes 为缺少 domain/path 的 Cookie 填充请求的主机名与默认路径
// 返回新的列表，输入列表及其中的 Cookie 不会被修改
func FillAttributes(u *url.URL, cookies []*Cookie) []*Cookie {
	out := make([]*Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cp := c.Clone()
		if u != nil {
			fill(cp, u)
		}
		out = append(out, cp)
	}
	return out
}

func fill(c *Cookie, u *url.URL) {
	if c.Domain == "" {
		c.Domain = u.Hostname()
		c.HostOnly = true
	}
	if c.Path == "" {
		c.Path = defaultPath(u)
	}
}

// Matches 判断 Cookie 是否应随请求 u 发送
func (c *Cookie) Matches(u *url.URL) bool {
	if u == nil {
		return false
	}
	if c.Secure && u.Scheme != "https" && u.Scheme != "wss" {
		return false
	}
	path := c.Path
	if path == "" {
		path = defaultPath(u)
	}
	return MatchesDomain(c.Domain, c.HostOnly, u) && MatchesPath(path, u)
}
