package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
	"github.com/signalnine/sweepbench/internal/result"
	"github.com/signalnine/sweepbench/internal/runner"
)

// InputDir is where the trial's input directory appears inside the container.
const InputDir = "/input"

type RunOpts struct {
	Image       string
	Command     []string
	Mounts      []Mount
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
	UserID      string
}

type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
	Output   []byte
}

// Invoker runs each trial in a fresh container. The trial's executable names
// an image whose entrypoint is the solver.
type Invoker struct {
	CPULimit    float64
	MemoryLimit int64
}

// ContainerCommand returns the arguments passed to the image entrypoint.
func ContainerCommand(t result.Trial) []string {
	return []string{InputDir + "/" + filepath.Base(t.File), strconv.Itoa(t.Threads)}
}

func (inv *Invoker) Invoke(ctx context.Context, trial result.Trial, timeout time.Duration) (*result.Sample, error) {
	inputAbs, err := filepath.Abs(trial.File)
	if err != nil {
		return nil, fmt.Errorf("resolving input path: %w", err)
	}
	res, err := RunContainer(ctx, &RunOpts{
		Image:   trial.Executable,
		Command: ContainerCommand(trial),
		Mounts: []Mount{
			{Source: filepath.Dir(inputAbs), Target: InputDir, ReadOnly: true},
		},
		Timeout:     timeout,
		CPULimit:    inv.CPULimit,
		MemoryLimit: inv.MemoryLimit,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
	})
	if err != nil {
		return nil, err
	}
	if res.TimedOut {
		return &result.Sample{Trial: trial, TimedOut: true, Elapsed: res.Duration}, nil
	}
	return &result.Sample{Trial: trial, Value: runner.LastLine(res.Output), Elapsed: res.Duration}, nil
}

func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	var mounts []mount.Mount
	for _, m := range opts.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: mounts,
		Init:   &initTrue,
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
	}

	// A TTY keeps stdout and stderr in one unmultiplexed log stream.
	containerCfg := &container.Config{
		Image:  opts.Image,
		Cmd:    opts.Command,
		Tty:    true,
		Labels: map[string]string{"sweepbench": "true"},
	}
	if opts.UserID != "" {
		containerCfg.User = opts.UserID
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err == nil {
				// nil error means no error on this channel; wait for result
				continue
			}
			if ctx.Err() != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				return nil, fmt.Errorf("waiting for container: %w", ctx.Err())
			}
			if !errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("waiting for container: %w", err)
			}
			// Only the container that overran is killed.
			cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
			return &RunResult{
				ExitCode: 124,
				TimedOut: true,
				Duration: time.Since(start),
			}, nil
		case status := <-waitResult.Result:
			duration := time.Since(start)
			var output []byte
			logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true})
			if err != nil {
				return nil, fmt.Errorf("reading container logs: %w", err)
			}
			output, err = io.ReadAll(logReader)
			logReader.Close()
			if err != nil {
				return nil, fmt.Errorf("reading container logs: %w", err)
			}
			return &RunResult{
				ExitCode: int(status.StatusCode),
				Duration: duration,
				Output:   output,
			}, nil
		}
	}
}
