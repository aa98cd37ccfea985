package utils

import (
	"testing"
	"time"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("EF_STR", " value ")
	t.Setenv("EF_INT", "42")
	t.Setenv("EF_BAD_INT", "forty")
	t.Setenv("EF_FLOAT", "0.25")
	t.Setenv("EF_BOOL", "on")
	t.Setenv("EF_DUR", "90s")

	if got := GetEnv("EF_STR", "x", nil); got != "value" {
		t.Fatalf("GetEnv: want=%q got=%q", "value", got)
	}
	if got := GetEnv("EF_MISSING", "x", nil); got != "x" {
		t.Fatalf("GetEnv default: want=%q got=%q", "x", got)
	}
	if got := GetEnvAsInt("EF_INT", 1, nil); got != 42 {
		t.Fatalf("GetEnvAsInt: want=42 got=%d", got)
	}
	if got := GetEnvAsInt("EF_BAD_INT", 7, nil); got != 7 {
		t.Fatalf("GetEnvAsInt fallback: want=7 got=%d", got)
	}
	if got := GetEnvAsFloat("EF_FLOAT", 1, nil); got != 0.25 {
		t.Fatalf("GetEnvAsFloat: want=0.25 got=%v", got)
	}
	if got := GetEnvAsBool("EF_BOOL", false, nil); !got {
		t.Fatalf("GetEnvAsBool: want=true")
	}
	if got := GetEnvAsDuration("EF_DUR", time.Second, nil); got != 90*time.Second {
		t.Fatalf("GetEnvAsDuration: want=90s got=%v", got)
	}
}

func TestSensitiveEnvNames(t *testing.T) {
	for _, k := range []string{"LLM_API_KEY", "OPENAI_API_KEY", "POSTGRES_PASSWORD"} {
		if !sensitive(k) {
			t.Fatalf("sensitive(%q): want=true", k)
		}
	}
	if sensitive("LLM_MODEL") {
		t.Fatalf("sensitive(LLM_MODEL): want=false")
	}
}
