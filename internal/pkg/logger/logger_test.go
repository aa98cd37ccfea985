package logger

import "testing"

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"llm_api_key", "sk-live-123",
		"player_name", "ada",
		"rank", "phd",
	})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("api key: want redacted got=%v", out[1])
	}
	hashed, ok := out[3].(string)
	if !ok || len(hashed) != len("hash:")+12 {
		t.Fatalf("player_name: want hash got=%v", out[3])
	}
	if out[5] != "phd" {
		t.Fatalf("rank: want=%q got=%v", "phd", out[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"source", "wire", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}
