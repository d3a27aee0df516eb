package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	h := parseHeaders(" a=1, b = 2 ,bad, c=")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("unexpected headers %v", h)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}
