package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ckd_auth_service/internal/app"
	"ckd_auth_service/internal/config"
	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage/memstore"

	"github.com/gofrs/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "http_server:\n  address: \":5000\"\nadmin:\n  code: test-code\nsession:\n  backend: memory\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

type fixture struct {
	stores   app.Stores
	sessions *memstore.Sessions
	migrated bool
}

func newFixture() *fixture {
	sessions := memstore.NewSessions()
	return &fixture{
		sessions: sessions,
		stores: app.Stores{
			Users:         memstore.NewAccounts(),
			Admins:        memstore.NewAccounts(),
			UserSessions:  sessions,
			AdminSessions: memstore.NewSessions(),
			Predictions:   memstore.Predictions(4),
		},
	}
}

func (f *fixture) open(_ context.Context, cfg *config.Config, log *slog.Logger) (*app.App, error) {
	stores := f.stores
	stores.Migrate = func(context.Context) error {
		f.migrated = true
		return nil
	}
	return app.Assemble(cfg, stores, log), nil
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "authctl", cmd.Use)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"migrate", "sweep", "stats"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestMigrate(t *testing.T) {
	f := newFixture()

	out, err := execute(t, newRootCommand(f.open), "migrate", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")
	assert.True(t, f.migrated)
}

func TestSweep(t *testing.T) {
	f := newFixture()
	now := time.Now()

	for i, expires := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		require.NoError(t, f.sessions.CreateSession(context.Background(), models.Session{
			Token:     string(rune('a' + i)),
			SubjectID: uuid.Must(uuid.NewV4()),
			ExpiresAt: expires,
		}))
	}

	out, err := execute(t, newRootCommand(f.open), "sweep", "-c", writeConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "removed 2 expired sessions\n", out)
	assert.True(t, f.sessions.Has("c"))
}

func TestStats(t *testing.T) {
	f := newFixture()
	_, err := f.stores.Users.CreateAccount(context.Background(), "Alice", "a@x.com", "hash")
	require.NoError(t, err)

	out, err := execute(t, newRootCommand(f.open), "stats", "-c", writeConfig(t))
	require.NoError(t, err)

	var stats models.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, models.Stats{TotalUsers: 1, TotalPredictions: 4}, stats)
}

func TestOpenError(t *testing.T) {
	failing := func(context.Context, *config.Config, *slog.Logger) (*app.App, error) {
		return nil, errors.New("db unreachable")
	}

	_, err := execute(t, newRootCommand(failing), "stats", "-c", writeConfig(t))
	require.ErrorContains(t, err, "open: db unreachable")
}

func TestMissingConfigFlag(t *testing.T) {
	_, err := execute(t, newRootCommand(newFixture().open), "stats")
	require.Error(t, err)
}
