package contract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDeltaLabel(t *testing.T) {
	tests := []struct {
		name  string
		delta int
		text  string
	}{
		{"increase", 2, "2"},
		{"decrease", -3, "-3"},
		{"unchanged", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Should contain the plain text with or without color codes
			assert.Contains(t, GetDeltaLabel(tt.delta, tt.text), tt.text)
		})
	}
	assert.Equal(t, "0", GetDeltaLabel(0, "0"))
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestGetDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		file string
	}{
		{"execution store", GetStoreDBFilePath(), ".cohort_executions.db"},
		{"class cache", GetClassCacheDBFilePath(), ".cohort_classes.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.path, tt.file)
			assert.True(t, strings.HasPrefix(tt.path, homeDir), "path %s should start with home dir %s", tt.path, homeDir)
		})
	}
	assert.NotEqual(t, GetStoreDBFilePath(), GetClassCacheDBFilePath())
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		label    string
		maxWidth int
		want     string
	}{
		{"Group (test1)", 20, "Group (test1)"},
		{"Group (a very long group name)", 12, "Group (a ..."},
		{"Ünïcödé label", 8, "Ünïcö..."},
		{"short", 3, "short"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateLabel(tt.label, tt.maxWidth))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, got, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, got, s)
	}
	_, err := ParseBoolString("maybe")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"PDC-1738", "PDC-053"}, SplitList(" PDC-1738 ,,PDC-053, "))
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList(" , "))
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"misaligned", fmt.Errorf("group: %w", ErrInsufficientTemporalAlignment), http.StatusNoContent},
		{"no data", ErrNoData, http.StatusNoContent},
		{"unknown query", fmt.Errorf("%w: PDC-404", ErrUnknownQuery), http.StatusNotFound},
		{"ambiguous", ErrAmbiguousGroupMembership, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var sb strings.Builder
	logger := SetupLogger(&sb, slog.LevelInfo)
	logger.Debug("hidden")
	slog.Info("peer skipped", slog.String("query", "PDC-1738"))

	out := sb.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "peer skipped")
	assert.Contains(t, out, "query=PDC-1738")
}
