package config

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf), 10*time.Millisecond)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not be logged at warn level, got %q", buf.String())
	}

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	if !strings.Contains(buf.String(), "Slow query") {
		t.Errorf("expected slow query log, got %q", buf.String())
	}

	buf.Reset()
	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Errorf("record not found should not be logged, got %q", buf.String())
	}

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	if !strings.Contains(buf.String(), "Query failed") {
		t.Errorf("expected failure log, got %q", buf.String())
	}
}

func TestGormLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf), time.Millisecond).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	l.Error(context.Background(), "x %d", 1)
	if buf.Len() != 0 {
		t.Errorf("silent logger wrote %q", buf.String())
	}
}
