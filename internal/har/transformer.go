package har

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arcnet/internal/cookie"
	"arcnet/internal/headers"
	"arcnet/internal/logger"
	"arcnet/pkg/domain"
	"arcnet/pkg/errx"
)

const (
	httpVersion = "HTTP/1.1"
	timeLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// Transformer 将请求记录转换为 HAR 文档
type Transformer struct {
	creator Creator
	log     logger.Logger
	now     func() time.Time
}

// Option 转换器选项
type Option func(*Transformer)

// WithCreator 设置 creator 信息
func WithCreator(name, version string) Option {
	return func(t *Transformer) { t.creator = Creator{Name: name, Version: version} }
}

// WithLogger 设置日志组件
func WithLogger(l logger.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClock 设置时钟，记录缺少开始时间时使用
func WithClock(now func() time.Time) Option {
	return func(t *Transformer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTransformer 创建转换器
func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{
		creator: Creator{Name: "arcnet", Version: "1.0.0"},
		log:     logger.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform 转换请求列表
// 每个重定向生成一条独立的记录，位于最终请求之前；无法转换的记录被跳过，不影响其余记录
func (t *Transformer) Transform(requests []*domain.Request) *HAR {
	doc := &HAR{Log: Log{
		Version: Version,
		Creator: t.creator,
		Entries: make([]Entry, 0, len(requests)),
	}}

	for i, r := range requests {
		entries, err := t.entries(r)
		if err != nil {
			var id string
			if r != nil {
				id = r.ID
			}
			t.log.Warn("跳过无法导出的请求", "index", i, "id", id, "error", err.Error())
			continue
		}
		doc.Log.Entries = append(doc.Log.Entries, entries...)
	}

	t.log.Debug("HAR 导出完成", "requests", len(requests), "entries", len(doc.Log.Entries))
	return doc
}

// Marshal 序列化 HAR 文档
func Marshal(doc *HAR, indent bool) ([]byte, error) {
	if indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// hop 重定向链中正在构造的请求
type hop struct {
	url         *url.URL
	method      string
	payload     *domain.Payload
	// bodyDropped 重定向改为 GET 后请求体相关的头部不再发送
	bodyDropped bool
}

func (t *Transformer) entries(r *domain.Request) ([]Entry, error) {
	if r == nil {
		return nil, errx.New(errx.CodeInvalidRecord, "nil request")
	}
	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil {
		return nil, errx.Wrap(errx.CodeInvalidURL, err, r.URL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errx.New(errx.CodeInvalidURL, r.URL)
	}

	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}
	start := r.StartTime
	if start.IsZero() {
		start = t.now()
	}

	current := hop{url: u, method: method, payload: r.Payload}
	res := r.Response
	if res == nil {
		res = &domain.Response{}
	}

	out := make([]Entry, 0, len(res.Redirects)+1)
	for _, rd := range res.Redirects {
		started := rd.StartTime
		if started.IsZero() {
			started = start
		}
		entry := t.entry(started, current, r.Headers, &rd.Response)
		out = append(out, entry)
		current = nextHop(current, rd.Response.Status, entry.Response.RedirectURL)
	}
	out = append(out, t.entry(start, current, r.Headers, res))
	return out, nil
}

func (t *Transformer) entry(started time.Time, h hop, rawHeaders string, res *domain.Response) Entry {
	timings := toTimings(res.Timings)
	total := timings.Total()
	if total <= 0 && res.LoadingTime > 0 {
		total = res.LoadingTime
	}
	return Entry{
		StartedDateTime: started.Format(timeLayout),
		Time:            total,
		Request:         t.request(h, rawHeaders),
		Response:        t.response(h.url, res),
		Cache:           Cache{},
		Timings:         timings,
	}
}

func (t *Transformer) request(h hop, rawHeaders string) Request {
	fields := headers.FromString(rawHeaders)
	if h.bodyDropped {
		fields = withoutBodyHeaders(fields)
	}
	req := Request{
		Method:      h.method,
		URL:         h.url.String(),
		HTTPVersion: httpVersion,
		Cookies:     requestCookies(fields),
		Headers:     nameValues(fields),
		QueryString: queryString(h.url),
		HeadersSize: -1,
		BodySize:    0,
	}
	if h.payload.Empty() {
		return req
	}

	ct, _ := headers.ContentType(fields)
	text, encoding := decodeBody(h.payload, ct)
	req.PostData = &PostData{MimeType: mimeTypeOf(h.payload, ct), Text: text, Encoding: encoding}
	if encoding != "" {
		req.PostData.Comment = "text is base64 encoded"
		t.log.Debug("请求体无法表示为文本，使用 base64", "url", req.URL)
	}
	req.BodySize = h.payload.Len()
	return req
}

func (t *Transformer) response(base *url.URL, res *domain.Response) Response {
	fields := headers.FromString(res.Headers)
	ct, _ := headers.ContentType(fields)
	text, encoding := decodeBody(res.Payload, ct)

	out := Response{
		Status:      res.Status,
		StatusText:  res.StatusText,
		HTTPVersion: httpVersion,
		Cookies:     responseCookies(fields),
		Headers:     nameValues(fields),
		Content: Content{
			Size:     res.Payload.Len(),
			MimeType: mimeTypeOf(res.Payload, ct),
			Text:     text,
			Encoding: encoding,
		},
		HeadersSize: -1,
		BodySize:    res.Payload.Len(),
	}
	if out.StatusText == "" && res.Status > 0 {
		out.StatusText = http.StatusText(res.Status)
	}
	if loc, ok := headers.Get(fields, "location"); ok && loc != "" {
		if ref, err := base.Parse(loc); err == nil {
			out.RedirectURL = ref.String()
		} else {
			out.RedirectURL = loc
		}
	}
	return out
}

// nextHop 根据重定向状态码计算下一跳
// 303 以及 POST 的 301/302 改为不带请求体的 GET
func nextHop(h hop, status int, location string) hop {
	next := h
	if location != "" {
		if u, err := h.url.Parse(location); err == nil {
			next.url = u
		}
	}
	if status == http.StatusSeeOther ||
		((status == http.StatusMovedPermanently || status == http.StatusFound) && h.method == http.MethodPost) {
		if h.method != http.MethodHead {
			next.method = http.MethodGet
		}
		next.payload = nil
		next.bodyDropped = true
	}
	return next
}

// bodyHeaders 请求体被丢弃后需要移除的头部
var bodyHeaders = map[string]bool{
	"content-type":      true,
	"content-length":    true,
	"content-encoding":  true,
	"transfer-encoding": true,
}

func withoutBodyHeaders(fields []headers.Field) []headers.Field {
	out := make([]headers.Field, 0, len(fields))
	for _, f := range fields {
		if !bodyHeaders[strings.ToLower(f.Name)] {
			out = append(out, f)
		}
	}
	return out
}

func toTimings(t *domain.Timings) Timings {
	out := Timings{Blocked: -1, DNS: -1, Connect: -1, Send: -1, Wait: -1, Receive: -1, SSL: -1}
	if t == nil {
		return out
	}
	out.Blocked = measured(t.Blocked)
	out.DNS = measured(t.DNS)
	out.Connect = measured(t.Connect)
	out.Send = measured(t.Send)
	out.Wait = measured(t.Wait)
	out.Receive = measured(t.Receive)
	out.SSL = measured(t.SSL)
	return out
}

func measured(v *float64) float64 {
	if v == nil || *v < 0 {
		return -1
	}
	return *v
}

func nameValues(fields []headers.Field) []NameValue {
	out := make([]NameValue, 0, len(fields))
	for _, f := range fields {
		out = append(out, NameValue{Name: f.Name, Value: f.Value})
	}
	return out
}

func queryString(u *url.URL) []NameValue {
	out := make([]NameValue, 0)
	if u.RawQuery == "" {
		return out
	}
	for _, part := range strings.Split(u.RawQuery, "&") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		nv := NameValue{Name: unescape(kv[0])}
		if len(kv) == 2 {
			nv.Value = unescape(kv[1])
		}
		out = append(out, nv)
	}
	return out
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

func requestCookies(fields []headers.Field) []Cookie {
	out := make([]Cookie, 0)
	for _, v := range headers.Values(fields, "cookie") {
		for _, c := range cookie.Parse(v) {
			out = append(out, Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return out
}

func responseCookies(fields []headers.Field) []Cookie {
	out := make([]Cookie, 0)
	for _, v := range headers.Values(fields, "set-cookie") {
		for _, c := range cookie.Parse(v) {
			hc := Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Path:     c.Path,
				Domain:   c.Domain,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			}
			if c.Expires != nil {
				hc.Expires = c.Expires.Format(timeLayout)
			}
			out = append(out, hc)
		}
	}
	return out
}
