package tracelog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogHydraGatedByLevelAndFlag(t *testing.T) {
	var buf bytes.Buffer
	global = &Logger{level: LevelTrace, writer: &buf, hydraEnabled: true}

	LogHydra("group %d crossed", 4)
	if !strings.Contains(buf.String(), "HYDRA: group 4 crossed") {
		t.Fatalf("expected HYDRA line, got %q", buf.String())
	}

	buf.Reset()
	SetHydraLogging(false)
	LogHydra("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output once hydra logging disabled, got %q", buf.String())
	}
}

func TestLogHydraTraceRequiresTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	global = &Logger{level: LevelDebug, writer: &buf, hydraEnabled: true}

	LogHydraTrace("fine-grained detail")
	if buf.Len() != 0 {
		t.Fatalf("expected Trace-level line suppressed at Debug level, got %q", buf.String())
	}

	global.level = LevelTrace
	LogHydraTrace("fine-grained detail")
	if !strings.Contains(buf.String(), "fine-grained detail") {
		t.Fatalf("expected trace line once level raised, got %q", buf.String())
	}
}

func TestLogMapperIndependentFlag(t *testing.T) {
	var buf bytes.Buffer
	global = &Logger{level: LevelDebug, writer: &buf, hydraEnabled: true, mapperEnabled: false}

	LogMapper("decoded row=4096")
	if buf.Len() != 0 {
		t.Fatal("expected mapper logging off by default to suppress output")
	}

	SetMapperLogging(true)
	LogMapper("decoded row=4096")
	if !strings.Contains(buf.String(), "MAPPER: decoded row=4096") {
		t.Fatalf("expected MAPPER line once enabled, got %q", buf.String())
	}
}

func TestLevelFromStringUnrecognizedDefaultsToInfo(t *testing.T) {
	if got := LevelFromString("bogus"); got != LevelInfo {
		t.Fatalf("LevelFromString(bogus) = %v; want LevelInfo", got)
	}
	if got := LevelFromString("trace"); got != LevelTrace {
		t.Fatalf("LevelFromString(trace) = %v; want LevelTrace", got)
	}
}
