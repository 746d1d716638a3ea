package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GRIDSIM_API_ADMIN_KEY", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIntentsNeedAdminKey(t *testing.T) {
	_, err := execute(t, "quit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin key")
}

func TestSpeedRejectsNonNumber(t *testing.T) {
	_, err := execute(t, "speed", "fast", "--admin-key", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speed index")
}

func TestPauseAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/pause", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"paused": true}`))
	}))
	defer srv.Close()

	out, err := execute(t, "pause", "--url", srv.URL, "--admin-key", "k")
	require.NoError(t, err)
	assert.Equal(t, "paused\n", out)
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("GRIDCTL_TEST_VALUE", "")
	assert.Equal(t, "fallback", envOrDefault("GRIDCTL_TEST_VALUE", "fallback"))
	t.Setenv("GRIDCTL_TEST_VALUE", "set")
	assert.Equal(t, "set", envOrDefault("GRIDCTL_TEST_VALUE", "fallback"))
}
