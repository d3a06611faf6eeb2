package ingest

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		textLen    int
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "text shorter than chunk size",
			textLen:    100,
			chunkSize:  500,
			overlap:    50,
			wantChunks: 1,
		},
		{
			name:       "text equals chunk size",
			textLen:    500,
			chunkSize:  500,
			overlap:    50,
			wantChunks: 1,
		},
		{
			name:       "1000 chars with size 500 overlap 50",
			textLen:    1000,
			chunkSize:  500,
			overlap:    50,
			wantChunks: 3, // windows at 0, 450, 900
		},
		{
			name:       "no overlap",
			textLen:    1000,
			chunkSize:  250,
			overlap:    0,
			wantChunks: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.textLen)
			chunks := SplitText(text, tt.chunkSize, tt.overlap)

			if len(chunks) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", len(chunks), tt.wantChunks)
			}
		})
	}
}

func TestSplitTextEmpty(t *testing.T) {
	if chunks := SplitText("", 500, 50); chunks != nil {
		t.Errorf("expected nil for empty input, got %d chunks", len(chunks))
	}
}

// Every rune of the input must appear in some chunk, in order, and
// consecutive chunks must share exactly the configured overlap.
func TestSplitTextCoverageAndOverlap(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " // 45 runes
	text = strings.Repeat(text, 30)                         // 1350 runes

	chunkSize := 200
	overlap := 30
	chunks := SplitText(text, chunkSize, overlap)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Reconstruct: drop the leading overlap of every chunk after the first.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for i := 1; i < len(chunks); i++ {
		runes := []rune(chunks[i])
		if len(runes) > overlap {
			rebuilt.WriteString(string(runes[overlap:]))
		}
	}
	if rebuilt.String() != text {
		t.Errorf("chunks do not reconstruct the original text")
	}

	// Each chunk's first 'overlap' runes equal the previous chunk's tail.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		if len(cur) < overlap {
			continue // tiny final chunk
		}
		prevTail := string(prev[len(prev)-overlap:])
		curHead := string(cur[:overlap])
		if prevTail != curHead {
			t.Errorf("chunk %d head does not match chunk %d tail", i, i-1)
		}
	}

	// No chunk exceeds the configured size.
	for i, c := range chunks {
		if len([]rune(c)) > chunkSize {
			t.Errorf("chunk %d has %d runes, exceeds %d", i, len([]rune(c)), chunkSize)
		}
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 100)
	chunks := SplitText(text, 50, 10)

	for i, c := range chunks {
		if len([]rune(c)) > 50 {
			t.Errorf("chunk %d exceeds rune limit", i)
		}
		if !strings.Contains(text, c) {
			t.Errorf("chunk %d is not a substring of the input", i)
		}
	}
}

func TestSplitterConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SplitterConfig
		wantErr bool
	}{
		{name: "valid", cfg: SplitterConfig{ChunkSize: 500, Overlap: 50}, wantErr: false},
		{name: "zero overlap", cfg: SplitterConfig{ChunkSize: 500, Overlap: 0}, wantErr: false},
		{name: "zero chunk size", cfg: SplitterConfig{ChunkSize: 0, Overlap: 0}, wantErr: true},
		{name: "negative overlap", cfg: SplitterConfig{ChunkSize: 500, Overlap: -1}, wantErr: true},
		{name: "overlap equals chunk size", cfg: SplitterConfig{ChunkSize: 100, Overlap: 100}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "windows newlines", in: "a\r\nb", want: "a\nb"},
		{name: "control characters removed", in: "a\x00b\x07c", want: "abc"},
		{name: "runs of spaces collapse", in: "a   \t b", want: "a b"},
		{name: "paragraph breaks survive", in: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "surrounding whitespace trimmed", in: "  hello  ", want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
