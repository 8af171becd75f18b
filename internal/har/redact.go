package har

import (
	"fmt"
	"strings"

	"arcnet/pkg/errx"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Redacted 脱敏后的占位值
const Redacted = "[redacted]"

// Redact 对已序列化的 HAR 文档脱敏
// names 中的头部（不区分大小写）的值被替换；names 包含 cookie 或 set-cookie 时对应的 cookies 值也被替换
func Redact(doc []byte, names []string) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, errx.New(errx.CodeInvalidRecord, "invalid HAR document")
	}
	if len(names) == 0 {
		return doc, nil
	}

	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	cookieSides := map[string]bool{
		"request":  set["cookie"],
		"response": set["set-cookie"],
	}

	out := doc
	var err error
	gjson.GetBytes(doc, "log.entries").ForEach(func(ei, entry gjson.Result) bool {
		for _, side := range []string{"request", "response"} {
			entry.Get(side + ".headers").ForEach(func(hi, h gjson.Result) bool {
				if !set[strings.ToLower(h.Get("name").String())] {
					return true
				}
				path := fmt.Sprintf("log.entries.%d.%s.headers.%d.value", ei.Int(), side, hi.Int())
				out, err = sjson.SetBytes(out, path, Redacted)
				return err == nil
			})
			if err != nil {
				return false
			}
			if !cookieSides[side] {
				continue
			}
			entry.Get(side + ".cookies").ForEach(func(ci, _ gjson.Result) bool {
				path := fmt.Sprintf("log.entries.%d.%s.cookies.%d.value", ei.Int(), side, ci.Int())
				out, err = sjson.SetBytes(out, path, Redacted)
				return err == nil
			})
			if err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, errx.Wrap(errx.CodeInvalidRecord, err, "redact HAR")
	}
	return out, nil
}
