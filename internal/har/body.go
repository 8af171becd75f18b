package har

import (
	"encoding/base64"
	"mime"
	"strings"
	"unicode/utf8"

	"arcnet/pkg/domain"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/htmlindex"
)

// EncodingBase64 无法安全表示为文本的内容使用的编码
const EncodingBase64 = "base64"

// unknownMimeType HAR 要求 mimeType 必填，无法确定时使用
const unknownMimeType = "x-unknown"

// decodeBody 将请求体转换为 HAR 文本
// 文本内容原样返回；二进制内容先按 Content-Type 中的字符集解码，无法得到合法 UTF-8 时使用 base64
func decodeBody(p *domain.Payload, contentType string) (text, encoding string) {
	if p == nil {
		return "", ""
	}
	if !p.IsBinary() {
		return p.Text, ""
	}
	if len(p.Raw) == 0 {
		return "", ""
	}

	mediaType, charset := parseContentType(contentType)
	if charset != "" && !isUTF8(charset) {
		if enc, err := htmlindex.Get(charset); err == nil {
			if out, err := enc.NewDecoder().Bytes(p.Raw); err == nil && utf8.Valid(out) {
				return string(out), ""
			}
		}
	}

	if !IsBinaryContentType(mediaType) && utf8.Valid(p.Raw) {
		return string(p.Raw), ""
	}
	return base64.StdEncoding.EncodeToString(p.Raw), EncodingBase64
}

// mimeTypeOf 返回 Content-Type，缺失时根据内容推断
func mimeTypeOf(p *domain.Payload, contentType string) string {
	if contentType != "" {
		return contentType
	}
	if p.Empty() {
		return unknownMimeType
	}
	if p.IsBinary() {
		return mimetype.Detect(p.Raw).String()
	}
	return mimetype.Detect([]byte(p.Text)).String()
}

// IsBinaryContentType 判断是否为二进制内容类型
func IsBinaryContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	binaryPrefixes := []string{"image/", "video/", "audio/", "application/octet-stream", "font/", "application/zip", "application/pdf"}
	for _, prefix := range binaryPrefixes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

func parseContentType(contentType string) (mediaType, charset string) {
	if contentType == "" {
		return "", ""
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// 宽松处理：只取分号前的部分
		return strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]), ""
	}
	return mt, params["charset"]
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8":
		return true
	}
	return false
}
