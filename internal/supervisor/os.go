package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/danmuck/editorhost/internal/launch"
	"github.com/danmuck/editorhost/internal/window"
	"github.com/prometheus/procfs"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// EnvAdjacent marks a child started with the adjacent launch policy.
const EnvAdjacent = "EDITORHOST_LAUNCH_ADJACENT"

// OS supervises window processes on the local host. Every window runs Executable with
// argv[0] set to its process name so that it can be found again through /proc.
type OS struct {
	Executable  string
	PackageName string
	// BaseArgs are passed to every spawned window after argv[0].
	BaseArgs []string
	// ProcRoot is the procfs mount point; empty uses the default.
	ProcRoot string
	// Exit ends the current process; nil uses os.Exit.
	Exit func(code int)
}

var _ Supervisor = (*OS)(nil)

func (o *OS) Spawn(ctx context.Context, desc window.Descriptor, intent launch.Intent, opts LaunchOptions) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	name := desc.ProcessName(o.PackageName)
	// Windows outlive the request that launched them, so ctx does not bind the child.
	cmd := exec.Command(o.Executable)
	cmd.Args = append([]string{name}, o.BaseArgs...)
	cmd.Env = o.childEnv(intent, opts)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// Own process group so a window survives its launcher's terminal signals.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Str("process", name).Msg("supervisor.OS.Spawn failed")
		return Handle{}, fmt.Errorf("supervisor: spawn %s: %w", name, err)
	}
	h := Handle{PID: cmd.Process.Pid, ProcessName: name}
	log.Info().
		Str("process", name).
		Int("pid", h.PID).
		Bool("adjacent", opts.Adjacent).
		Msg("supervisor.OS.Spawn started")

	go func() {
		err := cmd.Wait()
		log.Debug().Err(err).Str("process", name).Int("pid", h.PID).Msg("supervisor.OS.Spawn exited")
	}()
	return h, nil
}

func (o *OS) Kill(h Handle) error {
	if h.PID <= 0 {
		return ErrNotFound
	}
	if h.PID == os.Getpid() {
		return ErrSelf
	}
	if err := unix.Kill(h.PID, unix.SIGKILL); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return ErrNotFound
		}
		return fmt.Errorf("supervisor: kill %d: %w", h.PID, err)
	}
	log.Info().Str("process", h.ProcessName).Int("pid", h.PID).Msg("supervisor.OS.Kill")
	return nil
}

func (o *OS) Lookup(processName string) (Handle, error) {
	fs, err := o.procFS()
	if err != nil {
		return Handle{}, err
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return Handle{}, fmt.Errorf("supervisor: list processes: %w", err)
	}
	self := os.Getpid()
	for _, p := range procs {
		if p.PID == self {
			continue
		}
		cmdline, err := p.CmdLine()
		if err != nil || len(cmdline) == 0 {
			// Processes can exit between listing and reading.
			continue
		}
		if cmdline[0] == processName {
			return Handle{PID: p.PID, ProcessName: processName}, nil
		}
	}
	return Handle{}, ErrNotFound
}

func (o *OS) RestartSelf(intent launch.Intent) error {
	name := intent.Window.ProcessName(o.PackageName)
	argv := append([]string{name}, o.BaseArgs...)
	log.Info().Str("process", name).Strs("params", intent.CommandLineParams).Msg("supervisor.OS.RestartSelf")
	if err := unix.Exec(o.Executable, argv, o.childEnv(intent, LaunchOptions{})); err != nil {
		return fmt.Errorf("supervisor: restart self: %w", err)
	}
	return nil
}

func (o *OS) ForceQuitSelf() {
	log.Info().Int("pid", os.Getpid()).Msg("supervisor.OS.ForceQuitSelf")
	if o.Exit != nil {
		o.Exit(0)
		return
	}
	os.Exit(0)
}

func (o *OS) procFS() (procfs.FS, error) {
	root := o.ProcRoot
	if root == "" {
		root = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		return procfs.FS{}, fmt.Errorf("supervisor: open procfs: %w", err)
	}
	return fs, nil
}

// childEnv is the current environment with any inherited launch variables replaced.
func (o *OS) childEnv(intent launch.Intent, opts LaunchOptions) []string {
	env := make([]string, 0, len(os.Environ())+2)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, launch.EnvIntent+"=") || strings.HasPrefix(kv, EnvAdjacent+"=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, intent.Env())
	if opts.Adjacent {
		env = append(env, EnvAdjacent+"=1")
	}
	return env
}
