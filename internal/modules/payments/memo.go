package payments

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrMemoFormat is the single unparseable result for transfer memos. Both
// webhook processing and manual verification share this parser; there is no
// fallback extraction anywhere else.
var ErrMemoFormat = errors.New("missing HOTELHUB INV pattern")

var memoRe = regexp.MustCompile(`(?i)HOTELHUB\s*INV\s*(\d+)`)

// ParseMemo extracts the invoice id from a free-text transfer memo.
// The memo must contain the tag followed by a numeric invoice id,
// case-insensitive and whitespace-tolerant: "HOTELHUB INV10".
func ParseMemo(content string) (int64, error) {
	m := memoRe.FindStringSubmatch(content)
	if m == nil {
		return 0, ErrMemoFormat
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ErrMemoFormat
	}
	return id, nil
}
