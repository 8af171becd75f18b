package service_test

import (
	"context"
	"testing"
	"time"

	"arcnet/internal/cookie"
	"arcnet/internal/service"
	"arcnet/internal/storage/db"
	"arcnet/internal/storage/model"
	"arcnet/internal/storage/repo"
	"arcnet/pkg/errx"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *service.CookieService {
	t.Helper()
	gdb, err := db.New(db.Options{FullPath: db.MemoryPath})
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
	return service.New(repo.NewCookieRepo(gdb), nil, service.WithClock(func() time.Time { return fixedNow }))
}

func TestCookieService_StoreResponse(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	stored, err := s.StoreResponse(ctx, "https://www.example.com/account/login", []string{
		"sid=abc; Path=/; HttpOnly",
		"pref=dark",
		"wide=1; Domain=.example.com; Path=/",
		"evil=1; Domain=attacker.com",
	})
	if err != nil {
		t.Fatalf("StoreResponse 失败: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("预期接受 3 个 Cookie，实际 %d", len(stored))
	}

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"同一路径", "https://www.example.com/account/profile", "pref=dark; sid=abc; wide=1"},
		{"默认路径外", "https://www.example.com/", "sid=abc; wide=1"},
		{"父域名只收到 domain Cookie", "https://example.com/", "wide=1"},
		{"其他子域名", "https://api.example.com/", "wide=1"},
		{"无关域名", "https://attacker.com/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.CookieHeader(ctx, tt.url)
			if err != nil {
				t.Fatalf("CookieHeader 失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("CookieHeader(%s) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestCookieService_StoreResponseExpires(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	if _, err := s.StoreResponse(ctx, "http://example.com/", []string{"token=1"}); err != nil {
		t.Fatalf("StoreResponse 失败: %v", err)
	}
	if _, err := s.StoreResponse(ctx, "http://example.com/", []string{"token=; Max-Age=0"}); err != nil {
		t.Fatalf("StoreResponse 失败: %v", err)
	}

	list, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Max-Age=0 应删除已保存的 Cookie，剩余 %d", len(list))
	}
}

func TestCookieService_InvalidURL(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	for _, raw := range []string{"", "not a url", "/relative/path"} {
		if _, err := s.CookiesFor(ctx, raw); !errx.Is(err, errx.CodeInvalidURL) {
			t.Errorf("CookiesFor(%q) 错误 = %v, want %s", raw, err, errx.CodeInvalidURL)
		}
	}
}

func TestCookieService_MergeRequest(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	if _, err := s.StoreResponse(ctx, "http://example.com/", []string{"a=stored", "b=stored"}); err != nil {
		t.Fatalf("StoreResponse 失败: %v", err)
	}
	got, err := s.MergeRequest(ctx, "http://example.com/", "b=explicit; c=3")
	if err != nil {
		t.Fatalf("MergeRequest 失败: %v", err)
	}
	if want := "a=stored; b=explicit; c=3"; got != want {
		t.Errorf("MergeRequest = %q, want %q", got, want)
	}
}

func TestCookieService_ImportAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	imported := []*cookie.Cookie{
		cookie.New("keep", "1", cookie.WithDomain("example.com"), cookie.WithExpires(fixedNow.Add(time.Hour))),
		cookie.New("session", "1", cookie.WithDomain("example.com")),
		cookie.New("old", "1", cookie.WithDomain("example.com"), cookie.WithExpires(fixedNow.Add(-time.Hour))),
		cookie.New("nodomain", "1"),
		nil,
	}
	n, err := s.Import(ctx, imported)
	if err != nil {
		t.Fatalf("Import 失败: %v", err)
	}
	if n != 2 {
		t.Errorf("导入数量 = %d, want 2", n)
	}

	removed, err := s.Prune(ctx, false)
	if err != nil {
		t.Fatalf("Prune 失败: %v", err)
	}
	if removed != 0 {
		t.Errorf("没有过期 Cookie 时删除数量 = %d", removed)
	}

	removed, err = s.Prune(ctx, true)
	if err != nil {
		t.Fatalf("Prune 失败: %v", err)
	}
	if removed != 1 {
		t.Errorf("删除会话 Cookie 数量 = %d, want 1", removed)
	}

	list, err := s.List(ctx, "example.com")
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 1 || list[0].Name != "keep" {
		t.Errorf("剩余 Cookie 不正确: %+v", list)
	}

	cleared, err := s.Clear(ctx, "")
	if err != nil {
		t.Fatalf("Clear 失败: %v", err)
	}
	if cleared != 1 {
		t.Errorf("清空数量 = %d, want 1", cleared)
	}
}

func TestCookieService_PublicSuffixDomain(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	stored, err := s.StoreResponse(ctx, "https://www.example.com/", []string{
		"tld=1; Domain=com; Path=/",
		"suffix=1; Domain=co.uk; Path=/",
		"ok=1; Domain=example.com; Path=/",
	})
	if err != nil {
		t.Fatalf("StoreResponse 失败: %v", err)
	}
	if len(stored) != 1 || stored[0].Name != "ok" {
		t.Errorf("公共后缀域名应被拒绝，接受了 %+v", stored)
	}

	got, err := s.CookieHeader(ctx, "https://other.com/")
	if err != nil {
		t.Fatalf("CookieHeader 失败: %v", err)
	}
	if got != "" {
		t.Errorf("其他站点不应收到 Cookie: %q", got)
	}
}

func TestCookieService_MixedCaseHost(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	stored, err := s.StoreResponse(ctx, "https://Example.com/", []string{"sid=1", "wide=2; Domain=EXAMPLE.com; Path=/"})
	if err != nil {
		t.Fatalf("StoreResponse 失败: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("预期接受 2 个 Cookie，实际 %d", len(stored))
	}

	for _, raw := range []string{"https://Example.com/", "https://example.com/"} {
		got, err := s.CookieHeader(ctx, raw)
		if err != nil {
			t.Fatalf("CookieHeader 失败: %v", err)
		}
		if got != "sid=1; wide=2" {
			t.Errorf("CookieHeader(%s) = %q, want %q", raw, got, "sid=1; wide=2")
		}
	}
}
