package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsAndOverrides(t *testing.T) {
	l, err := Parse([]byte("desk_amend_limits:\n  power: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, l.MaxAmendments)
	assert.True(t, l.AutoApproveOnNoMatch)
	assert.Equal(t, 3, l.AmendLimit("POWER"))
	assert.Equal(t, 3, l.AmendLimit("power"))
	assert.Equal(t, 1, l.AmendLimit("GAS"))
}

func TestParse_ExplicitValues(t *testing.T) {
	l, err := Parse([]byte("max_amendments: 0\nauto_approve_on_no_match: false\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, l.AmendLimit("ANY"))
	assert.False(t, l.AutoApproveOnNoMatch)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("max_amendments: -1\n"))
	assert.ErrorContains(t, err, "max_amendments")

	_, err = Parse([]byte("desk_amend_limits:\n  gas: -2\n"))
	assert.ErrorContains(t, err, "GAS")

	_, err = Parse([]byte("max_amendments: [oops"))
	assert.ErrorContains(t, err, "parse policy")
}

func TestStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_amendments: 2\n"), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Current().MaxAmendments)

	require.NoError(t, os.WriteFile(path, []byte("max_amendments: 5\n"), 0o600))
	require.NoError(t, s.Reload())
	assert.Equal(t, 5, s.Current().MaxAmendments)

	require.NoError(t, os.WriteFile(path, []byte("max_amendments: -4\n"), 0o600))
	assert.Error(t, s.Reload())
	assert.Equal(t, 5, s.Current().MaxAmendments)
}

func TestOpen_EmptyPathUsesDefaults(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s.Current())
	assert.NoError(t, s.Reload())
}

func TestStore_WatchPicksUpWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_amendments: 1\n"), 0o600))
	s, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, zerolog.Nop()) }()

	// give the watcher a moment to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("max_amendments: 7\n"), 0o600))

	assert.Eventually(t, func() bool { return s.Current().MaxAmendments == 7 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
