package cookie_test

import (
	"testing"
	"time"

	"arcnet/internal/cookie"
)

func names(list []*cookie.Cookie) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}

func equalNames(got []*cookie.Cookie, want ...string) bool {
	g := names(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func TestJar_GetSet(t *testing.T) {
	j := cookie.NewJar("a=1; b=2", "https://example.com/")
	if j.Len() != 2 {
		t.Fatalf("got %d cookies, want 2", j.Len())
	}
	if got := j.Get("b"); got == nil || got.Value != "2" {
		t.Errorf("Get(b) = %v", got)
	}
	if j.Get("missing") != nil {
		t.Errorf("Get(missing) should be nil")
	}

	// 相同 name/domain/path 覆盖，最后写入生效
	j.Set(cookie.Parse("a=3")[0])
	if got := j.Get("a"); got.Value != "3" {
		t.Errorf("got %q, want 3", got.Value)
	}
	if j.Len() != 2 {
		t.Errorf("Set should replace in place, got %d cookies", j.Len())
	}

	// 同名但不同域名的 Cookie 追加在末尾，Get 返回最近写入的
	j.Set(cookie.New("a", "4", cookie.WithDomain("other.com")))
	if got := j.Get("a"); got.Value != "4" {
		t.Errorf("got %q, want most recently set 4", got.Value)
	}
	if j.String() != "a=3; b=2; a=4" {
		t.Errorf("got %q", j.String())
	}
}

func TestJar_GetAfterReplace(t *testing.T) {
	j := cookie.NewJar("", "https://x.com/")
	j.Set(cookie.New("a", "x1", cookie.WithDomain("x.com")))
	j.Set(cookie.New("a", "y", cookie.WithDomain("y.com")))
	// 原位替换 x.com 的 Cookie 后它是最近写入的
	j.Set(cookie.New("a", "x2", cookie.WithDomain("x.com")))

	got := j.Get("a")
	if got == nil || got.Value != "x2" || got.Domain != "x.com" {
		t.Errorf("Get(a) = %+v, want x2 on x.com", got)
	}
	if j.Len() != 2 || j.String() != "a=x2; a=y" {
		t.Errorf("replacement should keep position, got %q", j.String())
	}

	// Merge 覆盖同样视为最近写入
	j.Merge(cookie.NewJarFromCookies([]*cookie.Cookie{cookie.New("a", "y2", cookie.WithDomain("y.com"))}, ""))
	if got := j.Get("a"); got.Value != "y2" {
		t.Errorf("after merge Get(a) = %q, want y2", got.Value)
	}
}

func TestJar_Remove(t *testing.T) {
	j := cookie.NewJar("a=1; b=2; a=3", "")
	removed := j.Remove("a")
	if len(removed) != 2 {
		t.Errorf("got %d removed, want 2", len(removed))
	}
	if !equalNames(j.Cookies(), "b") {
		t.Errorf("got %v, want [b]", names(j.Cookies()))
	}
}

func TestJar_Filter(t *testing.T) {
	header := "own=1\nsub=2; Domain=example.com\nforeign=3; Domain=other.com\nwrongpath=4; Path=/admin\nhostonly=5; Domain=api.example.com"
	j := cookie.NewJar(header, "https://api.example.com/v1/users")

	removed := j.Filter()
	if !equalNames(removed, "foreign", "wrongpath") {
		t.Errorf("removed %v, want [foreign wrongpath]", names(removed))
	}
	if !equalNames(j.Cookies(), "own", "sub", "hostonly") {
		t.Errorf("kept %v", names(j.Cookies()))
	}

	own := j.Get("own")
	if own.Domain != "api.example.com" || !own.HostOnly || own.Path != "/v1" {
		t.Errorf("own cookie not filled from url: %+v", own)
	}
}

func TestJar_Filter_NoURL(t *testing.T) {
	j := cookie.NewJar("a=1; b=2", "not a url")
	removed := j.Filter()
	if len(removed) != 2 || j.Len() != 0 {
		t.Errorf("jar without url should drop everything, removed %d kept %d", len(removed), j.Len())
	}
}

func TestJar_ClearExpired(t *testing.T) {
	now := time.Now()
	expired := cookie.New("old", "1", cookie.WithExpires(now.Add(-time.Hour)))
	session := cookie.New("session", "2")
	future := cookie.New("future", "3", cookie.WithExpires(now.Add(time.Hour)))

	j := cookie.NewJarFromCookies([]*cookie.Cookie{expired, session, future}, "https://example.com/")
	got := j.ClearExpired(now)

	if len(got) != 1 || got[0] != expired {
		t.Errorf("got %v, want only the expired cookie", names(got))
	}
	if !equalNames(j.Cookies(), "session", "future") {
		t.Errorf("kept %v", names(j.Cookies()))
	}
}

func TestJar_Merge(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := cookie.New("sid", "old", cookie.WithDomain("example.com"), cookie.WithPath("/"), cookie.WithHTTPOnly())
	stored.Created = created
	keep := cookie.New("theme", "dark", cookie.WithDomain("example.com"), cookie.WithPath("/"))
	current := cookie.NewJarFromCookies([]*cookie.Cookie{stored, keep}, "https://example.com/")

	incoming := cookie.NewJar("sid=new; Domain=example.com; Path=/\nlang=en", "https://example.com/app/page")
	current.Merge(incoming, cookie.KeyCreated, cookie.KeyHTTPOnly)

	if !equalNames(current.Cookies(), "sid", "theme", "lang") {
		t.Fatalf("got %v", names(current.Cookies()))
	}
	sid := current.Get("sid")
	if sid.Value != "new" {
		t.Errorf("override should win, got %q", sid.Value)
	}
	if !sid.Created.Equal(created) || !sid.HTTPOnly {
		t.Errorf("copy keys not carried over: %+v", sid)
	}
	lang := current.Get("lang")
	if lang.Domain != "example.com" || lang.Path != "/app" || !lang.HostOnly {
		t.Errorf("incoming cookie not filled from its url: %+v", lang)
	}
}

func TestJar_Merge_Empty(t *testing.T) {
	j := cookie.NewJar("", "https://example.com/")
	j.Merge(nil)
	j.Merge(cookie.NewJar("", "https://example.com/"))
	if j.Len() != 0 {
		t.Errorf("merging empty jars should be a no-op")
	}

	j.Merge(cookie.NewJar("a=1", "https://example.com/x"))
	if j.Len() != 1 || j.Get("a").Domain != "example.com" {
		t.Errorf("merge into empty jar failed: %v", j.Cookies())
	}
}
