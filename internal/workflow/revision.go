package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// FirstRevision is the tag assigned to a document on first submission.
const FirstRevision = "RV01"

// NextRevision bumps an RVnn tag by one. Anything it cannot parse — empty
// string, wrong prefix, non-numeric suffix — fails closed to RV01.
func NextRevision(tag string) string {
	if !strings.HasPrefix(tag, "RV") {
		return FirstRevision
	}
	n, err := strconv.Atoi(tag[2:])
	if err != nil || n < 1 {
		return FirstRevision
	}
	return fmt.Sprintf("RV%02d", n+1)
}
