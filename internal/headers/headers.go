// Package headers 在原始头部文本、http.Header 与有序的名称/值列表之间转换
package headers

import (
	"net/http"
	"sort"
	"strings"
)

// Field 单个头部，多个同名头部可以合并为逗号分隔的值
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FromString 解析原始头部文本
// 以空格或制表符开头的行视为上一行的续行；空行忽略；缺少冒号的行作为只有名称的头部保留
func FromString(text string) []Field {
	result := make([]Field, 0)
	if strings.TrimSpace(text) == "" {
		return result
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(result) > 0 {
			last := &result[len(result)-1]
			last.Value = strings.TrimSpace(last.Value + " " + strings.TrimSpace(line))
			continue
		}

		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx == -1 {
			result = append(result, Field{Name: line})
			continue
		}
		result = append(result, Field{
			Name:  strings.TrimSpace(line[:idx]),
			Value: strings.TrimSpace(line[idx+1:]),
		})
	}
	return result
}

// FromHTTPHeader 将 http.Header 转换为列表，按名称排序，每个值一项
func FromHTTPHeader(h http.Header) []Field {
	result := make([]Field, 0, len(h))
	for _, name := range sortedKeys(h) {
		for _, v := range h[name] {
			result = append(result, Field{Name: name, Value: v})
		}
	}
	return result
}

// FromMap 将名称到值的映射转换为列表，按名称排序
func FromMap(m map[string]string) []Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]Field, 0, len(m))
	for _, k := range keys {
		result = append(result, Field{Name: k, Value: m[k]})
	}
	return result
}

// FromPairs 校验并复制列表，名称为空的项被丢弃
func FromPairs(pairs []Field) []Field {
	result := make([]Field, 0, len(pairs))
	for _, p := range pairs {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		result = append(result, Field{Name: name, Value: p.Value})
	}
	return result
}

// Unique 合并同名头部（名称不区分大小写）
// 首次出现的位置和名称写法保留，后续的值以 ", " 追加
func Unique(fields []Field) []Field {
	result := make([]Field, 0, len(fields))
	index := make(map[string]int, len(fields))
	for _, f := range fields {
		key := strings.ToLower(f.Name)
		if i, ok := index[key]; ok {
			if result[i].Value == "" {
				result[i].Value = f.Value
			} else if f.Value != "" {
				result[i].Value += ", " + f.Value
			}
			continue
		}
		index[key] = len(result)
		result = append(result, f)
	}
	return result
}

// ToString 转换为原始头部文本，每行一个 Name: Value
func ToString(fields []Field) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		lines = append(lines, f.Name+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// ToHTTPHeader 转换为 http.Header，名称按 MIME 规范化
func ToHTTPHeader(fields []Field) http.Header {
	h := make(http.Header, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		h.Add(f.Name, f.Value)
	}
	return h
}

// Get 返回第一个同名头部的值
func Get(fields []Field, name string) (string, bool) {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values 返回所有同名头部的值
func Values(fields []Field, name string) []string {
	var out []string
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// ContentType 返回 content-type 头部的值
func ContentType(fields []Field) (string, bool) {
	return Get(fields, "content-type")
}

// ContentTypeString 从原始头部文本中读取 content-type
func ContentTypeString(text string) (string, bool) {
	return ContentType(FromString(text))
}

// Replace 返回新列表，其中 name 的值被替换；不存在时追加
// 多个同名头部只保留第一个
func Replace(fields []Field, name, value string) []Field {
	result := make([]Field, 0, len(fields)+1)
	found := false
	for _, f := range fields {
		if !strings.EqualFold(f.Name, name) {
			result = append(result, f)
			continue
		}
		if found {
			continue
		}
		found = true
		result = append(result, Field{Name: f.Name, Value: value})
	}
	if !found {
		result = append(result, Field{Name: name, Value: value})
	}
	return result
}

// ReplaceString 与 Replace 相同，但输入输出均为原始头部文本
func ReplaceString(text, name, value string) string {
	return ToString(Replace(FromString(text), name, value))
}

func sortedKeys(h http.Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
