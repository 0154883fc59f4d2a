package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logadapter "github.com/MyCarrier-DevOps/git-versioning/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/git-versioning/internal/domain"
	"github.com/MyCarrier-DevOps/git-versioning/internal/usecases"
)

// nopLogger discards every entry.
type nopLogger struct{}

func (nopLogger) Info(_ context.Context, _ string, _ map[string]any)           {}
func (nopLogger) Debug(_ context.Context, _ string, _ map[string]any)          {}
func (nopLogger) Warn(_ context.Context, _ string, _ map[string]any)           {}
func (nopLogger) Error(_ context.Context, _ string, _ error, _ map[string]any) {}

func newNopAdapter() *logadapter.ZapAdapter {
	return logadapter.NewZapAdapter(nopLogger{})
}

func TestNewDependencies_AllFactoriesWired(t *testing.T) {
	deps := newDependencies(newNopAdapter)

	require.NotNil(t, deps)
	assert.NotNil(t, deps.LoggerFactory)
	assert.NotNil(t, deps.ConfigLoader)
	assert.NotNil(t, deps.SnapshotProviderFactory)
	assert.NotNil(t, deps.OverrideResolver)
	assert.NotNil(t, deps.ResolverFactory)
	assert.NotNil(t, deps.OutputWriterFactory)
	assert.NotNil(t, deps.Environ)
	assert.NotNil(t, deps.LookupEnv)
	assert.NotNil(t, deps.Stdout)
	assert.NotNil(t, deps.Stderr)
}

func TestNewDependencies_ResolverIsVersioner(t *testing.T) {
	deps := newDependencies(newNopAdapter)

	resolver := deps.ResolverFactory(deps.LoggerFactory())

	assert.IsType(t, &usecases.Versioner{}, resolver)
}

func TestNewDependencies_OutputWriterFactory(t *testing.T) {
	deps := newDependencies(newNopAdapter)

	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "text", format: "text"},
		{name: "json", format: "json"},
		{name: "yaml upper case", format: "YAML"},
		{name: "properties", format: "properties"},
		{name: "unsupported", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writer, err := deps.OutputWriterFactory(tt.format, &buf)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, writer)
				return
			}
			require.NoError(t, err)
			require.NoError(t, writer.Write(&domain.ResolutionOutput{Version: "1.0.0"}))
			assert.Contains(t, buf.String(), "1.0.0")
		})
	}
}

func TestNewDependencies_SnapshotProviderRejectsNonRepository(t *testing.T) {
	deps := newDependencies(newNopAdapter)

	provider, err := deps.SnapshotProviderFactory(t.TempDir(), deps.LoggerFactory())

	require.Error(t, err)
	assert.Nil(t, provider)
	assert.ErrorIs(t, err, domain.ErrRepositoryNotFound)
}

func TestNewDependencies_LoggerBuiltOnFirstUse(t *testing.T) {
	builds := 0
	deps := newDependencies(func() *logadapter.ZapAdapter {
		builds++
		return newNopAdapter()
	})

	assert.Equal(t, 0, builds, "logger must not be built while wiring")

	first := deps.LoggerFactory()
	_ = deps.ResolverFactory(first)
	second := deps.LoggerFactory()

	assert.Equal(t, 1, builds)
	assert.Same(t, first, second)
}
