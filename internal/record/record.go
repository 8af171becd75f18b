// Package record 读取客户端导出的请求记录
package record

import (
	"encoding/base64"
	"os"
	"strings"
	"time"

	"arcnet/pkg/domain"
	"arcnet/pkg/errx"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Load 解析导出数据
// 支持顶层数组，或包含 requests / history 数组的对象
func Load(data []byte) ([]*domain.Request, error) {
	if !gjson.ValidBytes(data) {
		return nil, errx.New(errx.CodeInvalidRecord, "invalid JSON export")
	}

	root := gjson.ParseBytes(data)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		items = append(items, root.Get("requests").Array()...)
		items = append(items, root.Get("history").Array()...)
	default:
		return nil, errx.New(errx.CodeInvalidRecord, "export must be an array or an object")
	}

	out := make([]*domain.Request, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		out = append(out, parseRequest(item))
	}
	return out, nil
}

// LoadFile 读取并解析导出文件
func LoadFile(path string) ([]*domain.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errx.Wrap(errx.CodeInvalidRecord, err, "读取导出文件失败")
	}
	return Load(data)
}

func parseRequest(v gjson.Result) *domain.Request {
	req := &domain.Request{
		ID:        firstString(v, "_id", "id", "key"),
		URL:       v.Get("url").String(),
		Method:    v.Get("method").String(),
		Headers:   v.Get("headers").String(),
		Payload:   parsePayload(v.Get("payload"), v.Get("payloadEncoding").String()),
		StartTime: parseTime(v, "startTime", "created", "updated"),
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Method == "" {
		req.Method = "GET"
	}
	if res := v.Get("response"); res.IsObject() {
		r := parseResponse(res)
		for _, rd := range res.Get("redirects").Array() {
			hop := rd.Get("response")
			if !hop.IsObject() {
				hop = rd
			}
			redirect := domain.Redirect{
				Response:  parseResponse(hop),
				StartTime: parseTime(rd, "startTime"),
			}
			if t := rd.Get("timings"); t.IsObject() {
				redirect.Response.Timings = parseTimings(t)
			}
			r.Redirects = append(r.Redirects, redirect)
		}
		req.Response = &r
	}
	return req
}

func parseResponse(v gjson.Result) domain.Response {
	res := domain.Response{
		Status:      int(v.Get("status").Int()),
		StatusText:  v.Get("statusText").String(),
		Headers:     v.Get("headers").String(),
		Payload:     parsePayload(v.Get("payload"), v.Get("payloadEncoding").String()),
		LoadingTime: v.Get("loadingTime").Float(),
	}
	if t := v.Get("timings"); t.IsObject() {
		res.Timings = parseTimings(t)
	}
	return res
}

// parsePayload 支持字符串、Node Buffer 的 JSON 形式 {"type":"Buffer","data":[...]}，
// 以及 payloadEncoding 为 base64 的字符串
func parsePayload(v gjson.Result, encoding string) *domain.Payload {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return nil
	case v.Type == gjson.String:
		if strings.EqualFold(encoding, "base64") {
			if raw, err := base64.StdEncoding.DecodeString(v.String()); err == nil {
				return domain.RawPayload(raw)
			}
		}
		return domain.TextPayload(v.String())
	case v.IsObject():
		data := v.Get("data")
		if !data.IsArray() {
			return nil
		}
		arr := data.Array()
		raw := make([]byte, 0, len(arr))
		for _, b := range arr {
			raw = append(raw, byte(b.Int()))
		}
		return domain.RawPayload(raw)
	case v.IsArray():
		arr := v.Array()
		raw := make([]byte, 0, len(arr))
		for _, b := range arr {
			raw = append(raw, byte(b.Int()))
		}
		return domain.RawPayload(raw)
	}
	return nil
}

func parseTimings(v gjson.Result) *domain.Timings {
	return &domain.Timings{
		Blocked: optionalFloat(v.Get("blocked")),
		DNS:     optionalFloat(v.Get("dns")),
		Connect: optionalFloat(v.Get("connect")),
		SSL:     optionalFloat(v.Get("ssl")),
		Send:    optionalFloat(v.Get("send")),
		Wait:    optionalFloat(v.Get("wait")),
		Receive: optionalFloat(v.Get("receive")),
	}
}

func optionalFloat(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}
	return domain.Ms(v.Float())
}

// parseTime 读取第一个存在的毫秒时间戳字段
func parseTime(v gjson.Result, keys ...string) time.Time {
	for _, k := range keys {
		f := v.Get(k)
		if f.Type == gjson.Number && f.Int() > 0 {
			return time.UnixMilli(f.Int()).UTC()
		}
	}
	return time.Time{}
}

func firstString(v gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}
