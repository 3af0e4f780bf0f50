package funnel

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestResponseSnippet(t *testing.T) {
	long := strings.Repeat("x", maxSnippetLen+10)
	cases := []struct {
		name   string
		header http.Header
		body   string
		want   string
	}{
		{name: "empty", body: "   ", want: "<empty>"},
		{name: "plain", body: "  not-json \n", want: "not-json"},
		{name: "truncated", body: long, want: long[:maxSnippetLen] + "..."},
		{name: "html by prefix", body: "<html><body><p>Service   down</p></body></html>", want: "Service down"},
		{
			name:   "html by content type",
			header: http.Header{"Content-Type": []string{"text/html"}},
			body:   "<title>Maintenance</title>",
			want:   "Maintenance",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := responseSnippet(tc.header, []byte(tc.body)); got != tc.want {
				t.Fatalf("responseSnippet = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResponseSnippetKeepsRunesWhole(t *testing.T) {
	prefix := strings.Repeat("a", maxSnippetLen-1)
	body := prefix + "é" + strings.Repeat("b", 20)

	got := responseSnippet(nil, []byte(body))
	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got[len(got)-8:])
	}
	if want := prefix + "..."; got != want {
		t.Fatalf("snippet tail = %q, want %q", got[len(got)-8:], want[len(want)-8:])
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{err: nil, want: KindUnknown},
		{err: errors.New("other"), want: KindUnknown},
		{err: &TransportInitError{Err: errors.New("x")}, want: KindTransportInit},
		{err: fmt.Errorf("wrapped: %w", &TransportError{Err: errors.New("x")}), want: KindTransport},
		{err: &DecodeError{Err: errors.New("x")}, want: KindDecode},
		{err: &StatusError{StatusCode: 500}, want: KindStatus},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
