package app

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evsales/internal/config"
	apperrors "evsales/internal/errors"
	"evsales/internal/infrastructure"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 0, ExitCode(flag.ErrHelp))
	assert.Equal(t, 2, ExitCode(apperrors.NewConfigError("bad", nil)))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("wrapped: %w", apperrors.NewConfigError("bad", nil))))
	assert.Equal(t, 1, ExitCode(apperrors.NewIOError("gone", nil)))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b,"))
	assert.Nil(t, SplitList(""))
}

func TestParseFlagsAndSetFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("in", "", "")
	fs.Bool("bom", false, "")

	require.NoError(t, ParseFlags(fs, []string{"-in", "x.csv"}))
	set := SetFlags(fs)
	assert.True(t, set["in"])
	assert.False(t, set["bom"])

	err := ParseFlags(flag.NewFlagSet("t", flag.ContinueOnError), []string{"stray"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestBootstrap(t *testing.T) {
	t.Chdir(t.TempDir())
	var stderr bytes.Buffer

	ctx, rt, err := Bootstrap(t.Context(), BootstrapOptions{
		Command: "test",
		Stderr:  &stderr,
		Override: func(cfg *config.Config) {
			cfg.Input.Path = "data/sales.csv"
		},
	})
	require.NoError(t, err)
	defer rt.Close(ctx)

	assert.NotEmpty(t, infrastructure.GetTraceID(ctx))
	assert.Equal(t, "data/sales.csv", rt.Config.Input.Path)
	assert.NotNil(t, rt.Pipeline)
	assert.Contains(t, stderr.String(), "run started")
	assert.Contains(t, stderr.String(), "command=test")

	_, err = rt.InputFile()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestBootstrap_InvalidOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := Bootstrap(t.Context(), BootstrapOptions{
		Stderr:   io.Discard,
		Override: func(cfg *config.Config) { cfg.Charts.Format = "svg" },
	})
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
}
