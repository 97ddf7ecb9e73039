package asin

import (
	"testing"

	fuzz "github.com/google/gofuzz"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{
			name: "dp path",
			url:  "https://www.amazon.com/dp/B08N5WRWNW",
			want: "B08N5WRWNW",
			ok:   true,
		},
		{
			name: "dp path with title segment",
			url:  "https://www.amazon.com/Some-Product-Title/dp/B08N5WRWNW/ref=sr_1_1",
			want: "B08N5WRWNW",
			ok:   true,
		},
		{
			name: "dp path with query",
			url:  "https://www.amazon.com/dp/B08N5WRWNW?tag=mytag-20&th=1",
			want: "B08N5WRWNW",
			ok:   true,
		},
		{
			name: "gp product path",
			url:  "https://www.amazon.com/gp/product/B000FI73MA",
			want: "B000FI73MA",
			ok:   true,
		},
		{
			name: "gp mobile path",
			url:  "https://www.amazon.com/gp/aw/d/B000FI73MA",
			want: "B000FI73MA",
			ok:   true,
		},
		{
			name: "asin query parameter",
			url:  "https://www.amazon.com/some/page?asin=B08N5WRWNW",
			want: "B08N5WRWNW",
			ok:   true,
		},
		{
			name: "lowercase path is normalized",
			url:  "https://www.amazon.com/dp/b08n5wrwnw",
			want: "B08N5WRWNW",
			ok:   true,
		},
		{
			name: "isbn-10 asin",
			url:  "https://www.amazon.com/dp/0134190440",
			want: "0134190440",
			ok:   true,
		},
		{
			name: "empty string",
			url:  "",
			ok:   false,
		},
		{
			name: "no asin in url",
			url:  "https://www.amazon.com/gp/bestsellers/books",
			ok:   false,
		},
		{
			name: "non amazon url without asin shape",
			url:  "https://example.com/dp/short",
			ok:   false,
		},
		{
			name: "nine character id is rejected",
			url:  "https://www.amazon.com/dp/B08N5WRWN",
			ok:   false,
		},
		{
			name: "not a url at all",
			url:  "://not a url%%%",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.url)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v; want %v", tt.url, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("Extract(%q) = %q; want %q", tt.url, got, tt.want)
			}
		})
	}
}

// Extract must never panic and must be deterministic for any input.
func TestExtractArbitraryInput(t *testing.T) {
	f := fuzz.New()

	for i := 0; i < 1000; i++ {
		var s string
		f.Fuzz(&s)

		got1, ok1 := Extract(s)
		got2, ok2 := Extract(s)

		if got1 != got2 || ok1 != ok2 {
			t.Fatalf("Extract(%q) is not deterministic: (%q, %v) vs (%q, %v)", s, got1, ok1, got2, ok2)
		}
	}
}
