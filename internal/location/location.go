// Package location keeps the shareable query string of the client and a
// back/forward history of it.
package location

import (
	"net/url"
	"strings"
)

// Params is the narrow get/set contract the client core relies on.
type Params interface {
	Get(key string) string
	// Set writes key (deleting it when value is empty). With replace the
	// current entry is rewritten, otherwise a new history entry is pushed.
	Set(key, value string, replace bool)
}

type History struct {
	entries []url.Values
	index   int
}

func New() *History {
	return &History{entries: []url.Values{{}}}
}

// Parse seeds a history from a shareable URL, a bare "?q=..." string or a
// plain query text.
func Parse(raw string) *History {
	h := New()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h
	}

	if u, err := url.Parse(raw); err == nil && (strings.HasPrefix(raw, "?") || isWebURL(u)) {
		h.entries[0] = u.Query()
		return h
	}

	h.entries[0].Set("q", raw)
	return h
}

// isWebURL tells a link apart from query text that merely contains a colon,
// such as "lang:go".
func isWebURL(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (h *History) Get(key string) string {
	return h.entries[h.index].Get(key)
}

func (h *History) Set(key, value string, replace bool) {
	next := cloneValues(h.entries[h.index])
	if value == "" {
		next.Del(key)
	} else {
		next.Set(key, value)
	}

	if replace {
		h.entries[h.index] = next
		return
	}

	h.entries = append(h.entries[:h.index+1], next)
	h.index++
}

// Back moves to the previous entry, reporting whether it moved.
func (h *History) Back() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

func (h *History) Forward() bool {
	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

func (h *History) Len() int {
	return len(h.entries)
}

// String renders the current entry as a query string ("" when empty).
func (h *History) String() string {
	encoded := h.entries[h.index].Encode()
	if encoded == "" {
		return ""
	}
	return "?" + encoded
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
