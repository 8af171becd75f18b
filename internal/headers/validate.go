package headers

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError 头部文本的结构性问题
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "\n")
}

// Validate 检查原始头部文本，无问题时返回 nil
// isPayload 为 true 时额外要求 content-length 为非负整数
func Validate(text string, isPayload bool) error {
	var problems []string

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			// 续行
			continue
		}
		idx := strings.Index(line, ":")
		if idx == -1 {
			problems = append(problems, fmt.Sprintf("line %d: header %q is missing the \":\" separator", i+1, strings.TrimSpace(line)))
			continue
		}
		name := line[:idx]
		if strings.TrimSpace(name) == "" {
			problems = append(problems, fmt.Sprintf("line %d: header name can't be empty", i+1))
			continue
		}
		if strings.ContainsAny(name, " \t") {
			problems = append(problems, fmt.Sprintf("line %d: header name %q should not contain whitespace", i+1, name))
		}
	}

	if isPayload {
		if v, ok := Get(FromString(text), "content-length"); ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil || n < 0 {
				problems = append(problems, fmt.Sprintf("content-length value %q is not a valid number", v))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
