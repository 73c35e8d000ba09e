package appctx

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"cinepwa/proj/internal/clients/api/apitest"
	"cinepwa/proj/internal/config"
	"cinepwa/proj/internal/localstore"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("api", "", "")
	cmd.Flags().String("data", "", "")
	cmd.Flags().StringP("output", "o", "", "")
	cmd.Flags().Bool("debug", false, "")
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd
}

func TestBootstrapFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CINEPWA_API_URL", "http://env:8000")
	t.Setenv("CINEPWA_OUTPUT", "yaml")
	cmd := testCmd()
	require.NoError(t, cmd.Flags().Set("api", "http://flag:8000"))

	var seen *config.ClientConfig
	backend := apitest.New()
	app, err := Bootstrap(cmd, func(cfg *config.ClientConfig) (*Deps, error) {
		seen = cfg
		return &Deps{Store: localstore.NewMemory(), Remote: backend}, nil
	}, Options{})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "http://flag:8000", seen.APIURL)
	assert.Equal(t, "yaml", seen.Output)
	assert.NotEmpty(t, app.UserID)
	assert.Nil(t, app.Cache)
	assert.Nil(t, app.Tasks)
}

func TestBootstrapDialError(t *testing.T) {
	errDial := errors.New("no disk")
	_, err := Bootstrap(testCmd(), func(*config.ClientConfig) (*Deps, error) {
		return nil, errDial
	}, Options{})
	assert.ErrorIs(t, err, errDial)
}

func TestBootstrapWithoutBackend(t *testing.T) {
	backend := apitest.New()
	backend.FailNext("SignInAnonymously", errors.New("connection refused"))
	closed := false
	_, err := Bootstrap(testCmd(), func(*config.ClientConfig) (*Deps, error) {
		return &Deps{Store: localstore.NewMemory(), Remote: backend, Close: func() error {
			closed = true
			return nil
		}}, nil
	}, Options{NeedsCache: true})
	assert.ErrorContains(t, err, "failed to establish session")
	assert.True(t, closed)
}

func TestCacheOpenedAndDrained(t *testing.T) {
	backend := apitest.New()
	store := localstore.NewMemory()
	dial := func(*config.ClientConfig) (*Deps, error) {
		return &Deps{Store: store, Remote: backend}, nil
	}
	app, err := Bootstrap(testCmd(), dial, Options{NeedsCache: true})
	require.NoError(t, err)
	require.NotNil(t, app.Cache)
	assert.Equal(t, 1, backend.Calls("UserContent"))

	app.Cache.MarkAsWatched(context.Background(), 7)
	app.Close()
	app.Close()
	assert.Equal(t, 1, backend.Calls("MarkWatched"))
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf)
	n.Notify("saved", nil)
	n.Notify("sync failed", errors.New("offline"))
	assert.Contains(t, buf.String(), "saved\n")
	assert.Contains(t, buf.String(), "! sync failed: offline\n")
}
