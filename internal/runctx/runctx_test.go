package runctx_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"catchup-feed/internal/runctx"

	"github.com/stretchr/testify/assert"
)

func TestWithRunID_RoundTrips(t *testing.T) {
	ctx := runctx.WithRunID(context.Background(), "42")
	assert.Equal(t, "42", runctx.FromContext(ctx))
}

func TestFromContext_EmptyWhenUnset(t *testing.T) {
	assert.Empty(t, runctx.FromContext(context.Background()))
}

func TestResolveRunID_PrefersConfigured(t *testing.T) {
	got := runctx.ResolveRunID("explicit", time.Unix(1000, 0))
	assert.Equal(t, "explicit", got)
}

func TestResolveRunID_DerivesFromEpochWhenEmpty(t *testing.T) {
	got := runctx.ResolveRunID("", time.Unix(1000, 0))
	assert.Equal(t, "1000", got)
}

func TestLogger_PrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	logger := runctx.NewLogger(base, "7")

	logger.Info("fetch ok")

	assert.Contains(t, buf.String(), "run=7; fetch ok")
}

func TestLogger_UnwrapReturnsBase(t *testing.T) {
	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	logger := runctx.NewLogger(base, "7")
	assert.Same(t, base, logger.Unwrap())
}

func TestPrefix_Format(t *testing.T) {
	assert.True(t, strings.HasSuffix(runctx.Prefix("9"), "; "))
	assert.Equal(t, "run=9; ", runctx.Prefix("9"))
}
