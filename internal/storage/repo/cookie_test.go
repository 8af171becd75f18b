package repo_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"arcnet/internal/cookie"
	"arcnet/internal/storage/db"
	"arcnet/internal/storage/model"
	"arcnet/internal/storage/repo"
)

func newRepo(t *testing.T) *repo.CookieRepo {
	t.Helper()
	gdb, err := db.New(db.Options{FullPath: db.MemoryPath, Prefix: "test_"})
	if err != nil {
		t.Fatalf("打开数据库失败: %v", err)
	}
	if err := db.Migrate(gdb, model.Models()...); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repo.NewCookieRepo(gdb)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析 URL 失败: %v", err)
	}
	return u
}

func names(cookies []*cookie.Cookie) []string {
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
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

func TestCookieRepo_SaveUpsert(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	first := cookie.New("sid", "1", cookie.WithDomain("example.com"), cookie.WithPath("/"))
	if err := r.Save(ctx, []*cookie.Cookie{first}); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	second := cookie.New("sid", "2", cookie.WithDomain("example.com"), cookie.WithPath("/"))
	other := cookie.New("sid", "3", cookie.WithDomain("example.com"), cookie.WithPath("/api"))
	if err := r.Save(ctx, []*cookie.Cookie{second, other}); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	count, err := r.Count(ctx, nil)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != 2 {
		t.Fatalf("预期 2 条记录，实际 %d", count)
	}

	list, err := r.List(ctx, "example.com")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 2 || list[0].Path != "/" || list[0].Value != "2" {
		t.Errorf("覆盖写入结果不正确: %+v", list)
	}
}

func TestCookieRepo_SaveDuplicatesInBatch(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	a := cookie.New("k", "old", cookie.WithDomain("example.com"))
	b := cookie.New("k", "new", cookie.WithDomain("example.com"))
	if err := r.Save(ctx, []*cookie.Cookie{a, b, nil}); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	list, err := r.List(ctx, "")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 1 || list[0].Value != "new" {
		t.Errorf("同批次重复的 Cookie 应以最后一个为准: %+v", list)
	}
}

func TestCookieRepo_FindForURL(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cookies := []*cookie.Cookie{
		cookie.New("root", "1", cookie.WithDomain("example.com"), cookie.WithPath("/")),
		cookie.New("deep", "1", cookie.WithDomain("example.com"), cookie.WithPath("/api")),
		cookie.New("host", "1", cookie.WithDomain("example.com"), cookie.WithHostOnly()),
		cookie.New("sub", "1", cookie.WithDomain("www.example.com")),
		cookie.New("secure", "1", cookie.WithDomain("example.com"), cookie.WithSecure()),
		cookie.New("expired", "1", cookie.WithDomain("example.com"), cookie.WithExpires(past)),
		cookie.New("alive", "1", cookie.WithDomain("example.com"), cookie.WithExpires(future)),
		cookie.New("other", "1", cookie.WithDomain("other.com")),
	}
	if err := r.Save(ctx, cookies); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	tests := []struct {
		name string
		url  string
		want []string
	}{
		{"子域名请求", "http://www.example.com/api/v1", []string{"deep", "root", "sub", "alive"}},
		{"主域名请求", "http://example.com/", []string{"root", "host", "alive"}},
		{"HTTPS 包含 secure", "https://example.com/", []string{"root", "host", "secure", "alive"}},
		{"无关域名", "http://nothing.org/", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.FindForURL(ctx, mustURL(t, tt.url), now)
			if err != nil {
				t.Fatalf("查询失败: %v", err)
			}
			if !equalNames(got, tt.want...) {
				t.Errorf("FindForURL(%s) = %v, want %v", tt.url, names(got), tt.want)
			}
			for _, c := range got {
				if !c.LastAccess.Equal(now) {
					t.Errorf("%s 的 LastAccess 未更新", c.Name)
				}
			}
		})
	}
}

func TestCookieRepo_Delete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := func(t *testing.T) *repo.CookieRepo {
		r := newRepo(t)
		err := r.Save(ctx, []*cookie.Cookie{
			cookie.New("a", "1", cookie.WithDomain("example.com"), cookie.WithExpires(now.Add(-time.Minute))),
			cookie.New("b", "1", cookie.WithDomain("example.com")),
			cookie.New("c", "1", cookie.WithDomain("other.com"), cookie.WithExpires(now.Add(time.Minute))),
		})
		if err != nil {
			t.Fatalf("保存失败: %v", err)
		}
		return r
	}

	tests := []struct {
		name   string
		delete func(r *repo.CookieRepo) (int64, error)
		want   int64
		left   int64
	}{
		{"删除过期", func(r *repo.CookieRepo) (int64, error) { return r.DeleteExpired(ctx, now) }, 1, 2},
		{"删除会话", func(r *repo.CookieRepo) (int64, error) { return r.DeleteSession(ctx) }, 1, 2},
		{"按域名删除", func(r *repo.CookieRepo) (int64, error) { return r.DeleteByDomain(ctx, ".Example.com") }, 2, 1},
		{"清空", func(r *repo.CookieRepo) (int64, error) { return r.ClearAll(ctx) }, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := seed(t)
			n, err := tt.delete(r)
			if err != nil {
				t.Fatalf("删除失败: %v", err)
			}
			if n != tt.want {
				t.Errorf("删除数量 = %d, want %d", n, tt.want)
			}
			left, err := r.Count(ctx, nil)
			if err != nil {
				t.Fatalf("统计失败: %v", err)
			}
			if left != tt.left {
				t.Errorf("剩余数量 = %d, want %d", left, tt.left)
			}
		})
	}
}

func TestCookieRepo_FindForURLMixedCaseHost(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := cookie.New("sid", "1", cookie.WithDomain("Example.com"), cookie.WithHostOnly())
	if err := r.Save(ctx, []*cookie.Cookie{c}); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	for _, raw := range []string{"https://Example.com/", "https://EXAMPLE.COM/a", "https://example.com/"} {
		got, err := r.FindForURL(ctx, mustURL(t, raw), now)
		if err != nil {
			t.Fatalf("查询失败: %v", err)
		}
		if !equalNames(got, "sid") {
			t.Errorf("FindForURL(%s) = %v, want [sid]", raw, names(got))
		}
	}
}

func TestCookieRepo_SaveAndPurge(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := r.Save(ctx, []*cookie.Cookie{
		cookie.New("token", "1", cookie.WithDomain("example.com")),
		cookie.New("stale", "1", cookie.WithDomain("example.com"), cookie.WithExpires(now.Add(-time.Minute))),
	})
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	// 已过期的 token 覆盖旧值后与 stale 一起被删除
	purged, err := r.SaveAndPurge(ctx, []*cookie.Cookie{
		cookie.New("token", "", cookie.WithDomain("example.com"), cookie.WithExpires(time.Unix(0, 0))),
		cookie.New("fresh", "1", cookie.WithDomain("example.com")),
	}, now)
	if err != nil {
		t.Fatalf("SaveAndPurge 失败: %v", err)
	}
	if purged != 2 {
		t.Errorf("删除数量 = %d, want 2", purged)
	}

	list, err := r.List(ctx, "")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if !equalNames(list, "fresh") {
		t.Errorf("剩余 = %v, want [fresh]", names(list))
	}
}
