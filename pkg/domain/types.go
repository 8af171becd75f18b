package domain

import "time"

// Payload 请求或响应体，Text 与 Raw 二选一
type Payload struct {
	Text string `json:"text,omitempty"`
	Raw  []byte `json:"raw,omitempty"` // 非 nil 表示二进制内容
}

// TextPayload 创建文本请求体
func TextPayload(s string) *Payload { return &Payload{Text: s} }

// RawPayload 创建二进制请求体
func RawPayload(b []byte) *Payload {
	if b == nil {
		b = []byte{}
	}
	return &Payload{Raw: b}
}

// IsBinary 是否为二进制内容
func (p *Payload) IsBinary() bool { return p != nil && p.Raw != nil }

// Len 返回字节长度
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	if p.Raw != nil {
		return len(p.Raw)
	}
	return len(p.Text)
}

// Empty 是否没有内容
func (p *Payload) Empty() bool { return p.Len() == 0 }

// Timings 各阶段耗时（毫秒），nil 表示未测量
type Timings struct {
	Blocked *float64 `json:"blocked,omitempty"`
	DNS     *float64 `json:"dns,omitempty"`
	Connect *float64 `json:"connect,omitempty"`
	SSL     *float64 `json:"ssl,omitempty"`
	Send    *float64 `json:"send,omitempty"`
	Wait    *float64 `json:"wait,omitempty"`
	Receive *float64 `json:"receive,omitempty"`
}

// Ms 返回毫秒值指针，便于构造 Timings
func Ms(v float64) *float64 { return &v }

// Request 客户端发出的一次请求及其结果
type Request struct {
	ID        string    `json:"id,omitempty"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Headers   string    `json:"headers"` // 原始头部文本
	Payload   *Payload  `json:"payload,omitempty"`
	StartTime time.Time `json:"startTime"` // 零值表示未知
	Response  *Response `json:"response,omitempty"`
}

// Response 最终响应
type Response struct {
	Status      int        `json:"status"`
	StatusText  string     `json:"statusText"`
	Headers     string     `json:"headers"`
	Payload     *Payload   `json:"payload,omitempty"`
	Timings     *Timings   `json:"timings,omitempty"`
	LoadingTime float64    `json:"loadingTime"` // 毫秒
	Redirects   []Redirect `json:"redirects,omitempty"`
}

// Redirect 重定向链中的一跳
type Redirect struct {
	Response  Response  `json:"response"`
	StartTime time.Time `json:"startTime"`
}
