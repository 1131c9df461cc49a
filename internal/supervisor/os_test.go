package supervisor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/testutil/testlog"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/stretchr/testify/require"
)

func requireLinuxSleep(t *testing.T) string {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("procfs lookup requires linux")
	}
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}
	return path
}

func TestSpawnLookupKill(t *testing.T) {
	testlog.Start(t)
	sleep := requireLinuxSleep(t)
	pkg := "editorhost.test." + strings.ReplaceAll(t.Name(), "/", ".")
	sup := &OS{Executable: sleep, PackageName: pkg, BaseArgs: []string{"30"}}

	h, err := sup.Spawn(context.Background(), window.RunGame, launch.Intent{Window: window.RunGame}, LaunchOptions{Adjacent: true})
	require.NoError(t, err)
	require.Equal(t, pkg+":GodotGame", h.ProcessName)

	var found Handle
	require.Eventually(t, func() bool {
		found, err = sup.Lookup(window.RunGame.ProcessName(pkg))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, h.PID, found.PID)

	require.NoError(t, sup.Kill(found))
	require.Eventually(t, func() bool {
		_, err := sup.Lookup(window.RunGame.ProcessName(pkg))
		return errors.Is(err, ErrNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLookupMissingProcess(t *testing.T) {
	testlog.Start(t)
	requireLinuxSleep(t)
	sup := &OS{PackageName: "editorhost.none"}
	_, err := sup.Lookup("editorhost.none:GodotXRGame")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKillRejectsSelfAndEmpty(t *testing.T) {
	testlog.Start(t)
	sup := &OS{}
	require.ErrorIs(t, sup.Kill(Handle{}), ErrNotFound)
	require.ErrorIs(t, sup.Kill(Handle{PID: os.Getpid()}), ErrSelf)
}

func TestChildEnvReplacesInheritedIntent(t *testing.T) {
	testlog.Start(t)
	t.Setenv(launch.EnvIntent, "stale")
	t.Setenv(EnvAdjacent, "1")
	sup := &OS{}
	env := sup.childEnv(launch.Intent{Window: window.EmbeddedRunGame}, LaunchOptions{})
	var intents, adjacent int
	for _, kv := range env {
		if strings.HasPrefix(kv, launch.EnvIntent+"=") {
			intents++
			require.NotEqual(t, launch.EnvIntent+"=stale", kv)
		}
		if strings.HasPrefix(kv, EnvAdjacent+"=") {
			adjacent++
		}
	}
	require.Equal(t, 1, intents)
	require.Zero(t, adjacent)
}

func TestForceQuitSelfUsesExitHook(t *testing.T) {
	testlog.Start(t)
	code := -1
	sup := &OS{Exit: func(c int) { code = c }}
	sup.ForceQuitSelf()
	require.Equal(t, 0, code)
}
