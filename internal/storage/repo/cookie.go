package repo

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"arcnet/internal/cookie"
	"arcnet/internal/storage/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CookieRepo Cookie 持久化仓库
type CookieRepo struct {
	*BaseRepository[model.CookieRecord]
}

// NewCookieRepo 创建 Cookie 仓库
func NewCookieRepo(db *gorm.DB) *CookieRepo {
	return &CookieRepo{
		BaseRepository: NewBaseRepository[model.CookieRecord](db),
	}
}

// Save 写入 Cookie，(name, domain, path) 相同的记录被覆盖
// 调用方需保证 domain 与 path 已填充
func (r *CookieRepo) Save(ctx context.Context, cookies []*cookie.Cookie) error {
	return upsert(r.Db.WithContext(ctx), cookies)
}

// SaveAndPurge 在同一事务中写入 Cookie 并删除在 now 时刻已过期的记录
// Max-Age=0 等已过期的 Cookie 借此覆盖并删除已保存的同名记录
func (r *CookieRepo) SaveAndPurge(ctx context.Context, cookies []*cookie.Cookie, now time.Time) (int64, error) {
	var purged int64
	err := r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsert(tx, cookies); err != nil {
			return err
		}
		n, err := r.Delete(ctx, expiredAt(now), WithDeleteTx(tx))
		purged = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

func upsert(db *gorm.DB, cookies []*cookie.Cookie) error {
	records := dedupe(cookies)
	if len(records) == 0 {
		return nil
	}
	return db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}, {Name: "domain"}, {Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"value", "expires", "secure", "http_only", "host_only", "last_access", "updated_at",
			}),
		}).
		Create(&records).Error
}

// FindForURL 查询应随请求 u 发送的未过期 Cookie，并更新其 last_access
// 按 RFC 6265 5.4 排序：路径较长的在前，路径相同时创建较早的在前。
// 主机名不区分大小写，与保存时的小写域名比较
func (r *CookieRepo) FindForURL(ctx context.Context, u *url.URL, now time.Time) ([]*cookie.Cookie, error) {
	if u == nil || u.Hostname() == "" {
		return nil, nil
	}
	lu := *u
	lu.Host = strings.ToLower(u.Host)

	filter := FilterFunc(func(db *gorm.DB) *gorm.DB {
		return notExpired(db.Where("domain IN ?", candidateDomains(lu.Hostname())), now)
	})
	orders := Orders{{Field: "LENGTH(path)", Sort: "DESC"}, {Field: "created_at", Sort: "ASC"}, {Field: "id", Sort: "ASC"}}

	var out []*cookie.Cookie
	err := r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		list, err := r.FindAll(ctx, filter, orders, WithQueryTx(tx))
		if err != nil {
			return err
		}

		out = make([]*cookie.Cookie, 0, len(list))
		ids := make([]uint, 0, len(list))
		for _, rec := range list {
			c := fromRecord(rec)
			if !c.Matches(&lu) {
				continue
			}
			c.LastAccess = now
			out = append(out, c)
			ids = append(ids, rec.ID)
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&model.CookieRecord{}).
			Where("id IN ?", ids).
			UpdateColumn("last_access", now).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List 按域名列出 Cookie，domain 为空时列出全部
func (r *CookieRepo) List(ctx context.Context, domain string) ([]*cookie.Cookie, error) {
	var filter Filter
	if domain != "" {
		filter = byDomain(domain)
	}
	list, err := r.FindAll(ctx, filter, Orders{{Field: "domain", Sort: "ASC"}, {Field: "path", Sort: "ASC"}, {Field: "name", Sort: "ASC"}})
	if err != nil {
		return nil, err
	}
	out := make([]*cookie.Cookie, 0, len(list))
	for _, rec := range list {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// DeleteExpired 删除在 now 时刻已过期的 Cookie
func (r *CookieRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.Delete(ctx, expiredAt(now))
}

// DeleteSession 删除全部会话 Cookie
func (r *CookieRepo) DeleteSession(ctx context.Context) (int64, error) {
	return r.Delete(ctx, FilterFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("expires IS NULL")
	}))
}

// DeleteByDomain 删除指定域名的 Cookie
func (r *CookieRepo) DeleteByDomain(ctx context.Context, domain string) (int64, error) {
	return r.Delete(ctx, byDomain(domain))
}

// ClearAll 清空全部 Cookie
func (r *CookieRepo) ClearAll(ctx context.Context) (int64, error) {
	return r.Delete(ctx, nil)
}

func byDomain(domain string) Filter {
	domain = strings.TrimPrefix(strings.ToLower(domain), ".")
	return FilterFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("domain = ?", domain)
	})
}

func expiredAt(now time.Time) Filter {
	return FilterFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where("expires IS NOT NULL AND expires <= ?", now.UnixMilli())
	})
}

func notExpired(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("expires IS NULL OR expires > ?", now.UnixMilli())
}

// candidateDomains 返回可能与 host 匹配的域名：host 本身及其各级父域
func candidateDomains(host string) []string {
	out := []string{host}
	if net.ParseIP(host) != nil {
		return out
	}
	for {
		i := strings.IndexByte(host, '.')
		if i < 0 || i == len(host)-1 {
			return out
		}
		host = host[i+1:]
		out = append(out, host)
	}
}

// dedupe 转换为记录，同一 (name, domain, path) 以最后出现的为准
func dedupe(cookies []*cookie.Cookie) []*model.CookieRecord {
	index := make(map[[3]string]int, len(cookies))
	out := make([]*model.CookieRecord, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		rec := toRecord(c)
		k := [3]string{rec.Name, rec.Domain, rec.Path}
		if i, ok := index[k]; ok {
			out[i] = rec
			continue
		}
		index[k] = len(out)
		out = append(out, rec)
	}
	return out
}

func toRecord(c *cookie.Cookie) *model.CookieRecord {
	rec := &model.CookieRecord{
		Name:       c.Name,
		Domain:     strings.TrimPrefix(strings.ToLower(c.Domain), "."),
		Path:       c.Path,
		Value:      c.Value,
		Secure:     c.Secure,
		HTTPOnly:   c.HTTPOnly,
		HostOnly:   c.HostOnly,
		LastAccess: c.LastAccess,
		CreatedAt:  c.Created,
	}
	if c.Expires != nil {
		ms := c.Expires.UnixMilli()
		rec.Expires = &ms
	}
	return rec
}

func fromRecord(rec *model.CookieRecord) *cookie.Cookie {
	c := &cookie.Cookie{
		Name:       rec.Name,
		Value:      rec.Value,
		Domain:     rec.Domain,
		Path:       rec.Path,
		Secure:     rec.Secure,
		HTTPOnly:   rec.HTTPOnly,
		HostOnly:   rec.HostOnly,
		Created:    rec.CreatedAt,
		LastAccess: rec.LastAccess,
	}
	if rec.Expires != nil {
		t := time.UnixMilli(*rec.Expires).UTC()
		c.Expires = &t
	}
	return c
}
