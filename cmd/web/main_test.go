package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evsales/internal/app"
)

func TestRun_StopsWhenContextDone(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("sales.csv", []byte("Year,Month,Region,Estimated_Deliveries\n2023,1,US,5\n"), 0644))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var stderr bytes.Buffer
	err := run(ctx, []string{"-addr", "127.0.0.1:0", "-in", "sales.csv"}, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stderr.String(), "Application shutdown complete")
}

func TestRun_Errors(t *testing.T) {
	t.Chdir(t.TempDir())
	var stderr bytes.Buffer

	err := run(t.Context(), []string{"-addr", ""}, &stderr)
	require.Error(t, err)
	assert.Equal(t, 2, app.ExitCode(err))

	err = run(t.Context(), []string{"-addr", "127.0.0.1:99999"}, &stderr)
	require.Error(t, err)
	assert.Equal(t, 1, app.ExitCode(err))
}
