package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	initialStatePattern = regexp.MustCompile(`window\.__INITIAL_STATE__\s*=\s*`)
	playInfoPattern     = regexp.MustCompile(`window\.__playinfo__\s*=\s*`)
)

// decodeAssignment finds the first script assigning a JSON literal after
// marker and decodes that literal into out. Only one JSON value is consumed,
// so trailers such as ";(function(){...})()" are ignored.
func decodeAssignment(scripts []string, marker *regexp.Regexp, out any) error {
	found := false
	var lastErr error
	for _, script := range scripts {
		loc := marker.FindStringIndex(script)
		if loc == nil {
			continue
		}
		found = true
		dec := json.NewDecoder(strings.NewReader(script[loc[1]:]))
		if err := dec.Decode(out); err != nil {
			lastErr = fmt.Errorf("decode %s payload: %w", markerName(marker), err)
			continue
		}
		return nil
	}
	if !found {
		return fmt.Errorf("marker %s not found", markerName(marker))
	}
	return lastErr
}

func markerName(marker *regexp.Regexp) string {
	switch marker {
	case initialStatePattern:
		return "__INITIAL_STATE__"
	case playInfoPattern:
		return "__playinfo__"
	default:
		return marker.String()
	}
}

type rawPage struct {
	Page int    `json:"page"`
	Part string `json:"part"`
}

func convertPages(raw *[]rawPage, path string) ([]PageEntry, error) {
	if raw == nil {
		return nil, fmt.Errorf("key %s missing", path)
	}
	if len(*raw) == 0 {
		return nil, fmt.Errorf("key %s is empty", path)
	}
	entries := make([]PageEntry, 0, len(*raw))
	for i, p := range *raw {
		if p.Page < 1 {
			return nil, fmt.Errorf("%s[%d] has invalid page number %d", path, i, p.Page)
		}
		entries = append(entries, PageEntry{Index: p.Page, Title: p.Part})
	}
	return entries, nil
}
