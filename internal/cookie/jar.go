package cookie

import (
	"net/url"
	"time"
)

// 可在 Merge 时从旧 Cookie 继承的字段
const (
	KeyCreated    = "created"
	KeyLastAccess = "lastAccess"
	KeyHostOnly   = "hostOnly"
	KeyHTTPOnly   = "httpOnly"
	KeySecure     = "secure"
)

// Jar 绑定到某个请求 URL 的有序 Cookie 集合
// Jar 持有其中 Cookie 的所有权，Filter/Merge 会直接补全它们的 domain/path
type Jar struct {
	url     string
	uri     *url.URL
	cookies []*Cookie
	// written 记录每个 Cookie 的写入序号，Get 据此返回最近写入的同名 Cookie
	written map[*Cookie]uint64
	seq     uint64
}

// NewJar 解析 Cookie 头并绑定到 rawURL
func NewJar(header, rawURL string) *Jar {
	return NewJarFromCookies(Parse(header), rawURL)
}

// NewJarFromCookies 使用已有的 Cookie 创建集合
func NewJarFromCookies(cookies []*Cookie, rawURL string) *Jar {
	j := &Jar{url: rawURL}
	if rawURL != "" {
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			j.uri = u
		}
	}
	for _, c := range cookies {
		if c != nil && c.Name != "" {
			j.cookies = append(j.cookies, c)
			j.touch(c)
		}
	}
	return j
}

// URL 返回绑定的原始 URL
func (j *Jar) URL() string { return j.url }

// Cookies 返回当前 Cookie 列表的副本
func (j *Jar) Cookies() []*Cookie {
	out := make([]*Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out
}

// Len 返回 Cookie 数量
func (j *Jar) Len() int { return len(j.cookies) }

// Get 返回最近写入的同名 Cookie
// 原位替换不改变位置，因此按写入序号而不是位置判断
func (j *Jar) Get(name string) *Cookie {
	var (
		found *Cookie
		best  uint64
	)
	for _, c := range j.cookies {
		if c.Name != name {
			continue
		}
		if seq := j.written[c]; found == nil || seq >= best {
			found, best = c, seq
		}
	}
	return found
}

// Set 写入 Cookie，name/domain/path 相同的旧值会被原位替换
func (j *Jar) Set(c *Cookie) {
	if c == nil || c.Name == "" {
		return
	}
	j.touch(c)
	if i := j.indexOf(c); i != -1 {
		if j.cookies[i] != c {
			delete(j.written, j.cookies[i])
		}
		j.cookies[i] = c
		return
	}
	j.cookies = append(j.cookies, c)
}

// Remove 删除所有同名 Cookie 并返回被删除的项
func (j *Jar) Remove(name string) []*Cookie {
	var kept, removed []*Cookie
	for _, c := range j.cookies {
		if c.Name == name {
			removed = append(removed, c)
			delete(j.written, c)
		} else {
			kept = append(kept, c)
		}
	}
	j.cookies = kept
	return removed
}

// Filter 移除与绑定 URL 的域名或路径不匹配的 Cookie，并返回被移除的项
// 缺少 domain/path 的 Cookie 会先按 URL 补全。没有有效 URL 时全部移除。
func (j *Jar) Filter() []*Cookie {
	if j.uri == nil {
		removed := j.cookies
		j.cookies = nil
		return removed
	}

	var kept, removed []*Cookie
	for _, c := range j.cookies {
		fill(c, j.uri)
		if MatchesDomain(c.Domain, c.HostOnly, j.uri) && MatchesPath(c.Path, j.uri) {
			kept = append(kept, c)
		} else {
			removed = append(removed, c)
		}
	}
	j.cookies = kept
	return removed
}

// ClearExpired 移除在 now 时刻已过期的 Cookie 并返回它们，会话 Cookie 保留
func (j *Jar) ClearExpired(now time.Time) []*Cookie {
	var kept, expired []*Cookie
	for _, c := range j.cookies {
		if c.IsExpired(now) {
			expired = append(expired, c)
		} else {
			kept = append(kept, c)
		}
	}
	j.cookies = kept
	return expired
}

// Merge 将 other 中的 Cookie 合并到当前集合
// other 中缺少 domain/path 的 Cookie 按 other 的 URL 补全；name/domain/path 相同时新值覆盖旧值，
// copyKeys 指定的字段从被覆盖的旧 Cookie 继承
func (j *Jar) Merge(other *Jar, copyKeys ...string) {
	if other == nil || len(other.cookies) == 0 {
		return
	}

	for _, nc := range other.cookies {
		if other.uri != nil {
			fill(nc, other.uri)
		}
		j.touch(nc)
		i := j.indexOf(nc)
		if i == -1 {
			j.cookies = append(j.cookies, nc)
			continue
		}
		copyFields(j.cookies[i], nc, copyKeys)
		if j.cookies[i] != nc {
			delete(j.written, j.cookies[i])
		}
		j.cookies[i] = nc
	}
}

// String 返回请求头 Cookie 的值
func (j *Jar) String() string {
	return Join(j.cookies)
}

func (j *Jar) touch(c *Cookie) {
	if j.written == nil {
		j.written = make(map[*Cookie]uint64)
	}
	j.seq++
	j.written[c] = j.seq
}

func (j *Jar) indexOf(c *Cookie) int {
	k := c.key()
	for i, existing := range j.cookies {
		if existing.key() == k {
			return i
		}
	}
	return -1
}

func copyFields(from, to *Cookie, keys []string) {
	for _, k := range keys {
		switch k {
		case KeyCreated:
			to.Created = from.Created
		case KeyLastAccess:
			to.LastAccess = from.LastAccess
		case KeyHostOnly:
			to.HostOnly = from.HostOnly
		case KeyHTTPOnly:
			to.HTTPOnly = from.HTTPOnly
		case KeySecure:
			to.Secure = from.Secure
		}
	}
}
