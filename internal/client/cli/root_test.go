package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubNewApp(t *testing.T, setup func(a *testApp)) {
	t.Helper()
	orig := newAppFn
	newAppFn = func(context.Context) (*App, error) {
		a := newTestApp(t, "2024-03-10 10:00")
		if setup != nil {
			setup(a)
		}
		return a.App, nil
	}
	t.Cleanup(func() { newAppFn = orig })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Status(t *testing.T) {
	stubNewApp(t, nil)
	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not signed in")
	assert.Contains(t, out, "last backup: never")
}

func TestRootCommand_ConfigFlagsAccepted(t *testing.T) {
	stubNewApp(t, nil)
	_, err := execute(t, "-d", "/tmp/pk", "--config", "cfg.json", "status", "-t", "5")
	require.NoError(t, err)
}

func TestRootCommand_Sync(t *testing.T) {
	t.Run("automatic is deferred", func(t *testing.T) {
		stubNewApp(t, func(a *testApp) { a.signIn(t) })
		out, err := execute(t, "sync")
		require.NoError(t, err)
		assert.Contains(t, out, "not enough changes")
	})

	t.Run("forced", func(t *testing.T) {
		var remote *memStore
		stubNewApp(t, func(a *testApp) {
			a.signIn(t)
			require.NoError(t, a.records.SaveDayRecord(context.Background(), "2024-03-01", models.NewVoluntaryRecord(1)))
			remote = a.remote
		})
		out, err := execute(t, "sync", "--force")
		require.NoError(t, err)
		assert.Contains(t, out, "backup complete")
		assert.Equal(t, 1, remote.objects["uid-1"].FieldCount())
	})
}

func TestRootCommand_Stats(t *testing.T) {
	stubNewApp(t, nil)

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "overall")

	_, err = execute(t, "stats", "week", "month")
	require.Error(t, err)
}

func TestRootCommand_Restore(t *testing.T) {
	t.Run("signed out", func(t *testing.T) {
		stubNewApp(t, nil)
		_, err := execute(t, "restore")
		require.Error(t, err)
	})

	t.Run("restores without prompting", func(t *testing.T) {
		stubNewApp(t, func(a *testApp) {
			a.signIn(t)
			a.remote.objects["uid-1"] = models.RecordSet{"2024-03-01": models.NewVoluntaryRecord(2)}
		})
		out, err := execute(t, "restore")
		require.NoError(t, err)
		assert.Contains(t, out, "backup restored")
	})
}

func TestRootCommand_AppError(t *testing.T) {
	orig := newAppFn
	newAppFn = func(context.Context) (*App, error) { return nil, errors.New("no database") }
	t.Cleanup(func() { newAppFn = orig })

	_, err := execute(t, "status")
	require.EqualError(t, err, "no database")
}
