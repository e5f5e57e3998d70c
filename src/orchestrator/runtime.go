package orchestrator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"go.uber.org/fx"
	"go.uber.org/zap"

	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
)

// RuntimeModule wires a ContainerRuntime backed by the local container engine.
var RuntimeModule = fx.Provide(NewDockerRuntime)

// ContainerSpec describes a container to create, mirroring §4.C's `spec`
// fields.
type ContainerSpec struct {
	Image         string
	Cmd           []string
	Env           []string
	HostBindPath  string
	Network       string
	ExposedPort   string
	MemoryLimitMB int64
	CPUShares     int64
}

// ContainerState is the subset of engine-reported state the Orchestrator
// needs to derive health and URLs.
type ContainerState struct {
	Running       bool
	IPAddress     string
	ExitCode      int
}

// ContainerRuntime is a narrow capability over a container engine, per
// §4.C. It exists so the Orchestrator can be tested without a real
// engine.
type ContainerRuntime interface {
	CreateNetwork(ctx context.Context, name string) (string, error)
	RemoveNetwork(ctx context.Context, name string) error
	PullIfMissing(ctx context.Context, image string) error
	CreateContainer(ctx context.Context, name string, spec ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string, timeoutSeconds int) error
	RemoveContainer(ctx context.Context, id string, force bool) error
	InspectContainer(ctx context.Context, id string) (ContainerState, error)
	ContainerLogs(ctx context.Context, id string, tailLines int) (string, error)
}

type dockerRuntime struct {
	client *client.Client
	logger *zap.SugaredLogger
}

// NewDockerRuntime connects to the local container engine via its default
// socket/environment configuration. A connection failure is surfaced as
// EngineUnavailableError, which is fatal at startup per §7.
func NewDockerRuntime(logger *zap.SugaredLogger) (ContainerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, &lsperrors.EngineUnavailableError{Cause: err}
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		return nil, &lsperrors.EngineUnavailableError{Cause: err}
	}
	return &dockerRuntime{client: cli, logger: logger}, nil
}

func (r *dockerRuntime) CreateNetwork(ctx context.Context, name string) (string, error) {
	existing, err := r.client.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return "", err
	}
	for _, n := range existing {
		if n.Name == name {
			return n.ID, nil
		}
	}
	resp, err := r.client.NetworkCreate(ctx, name, network.CreateOptions{})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (r *dockerRuntime) RemoveNetwork(ctx context.Context, name string) error {
	return r.client.NetworkRemove(ctx, name)
}

func (r *dockerRuntime) PullIfMissing(ctx context.Context, imageRef string) error {
	_, _, err := r.client.ImageInspectWithRaw(ctx, imageRef)
	if err == nil {
		return nil
	}
	reader, err := r.client.ImagePull(ctx, imageRef, image.PullOptions{})
	if err != nil {
		return &lsperrors.ImageMissingError{Image: imageRef, Cause: err}
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return &lsperrors.ImageMissingError{Image: imageRef, Cause: err}
	}
	return nil
}

func (r *dockerRuntime) CreateContainer(ctx context.Context, name string, spec ContainerSpec) (string, error) {
	cfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		Env:          spec.Env,
		ExposedPorts: portSet(spec.ExposedPort),
	}
	hostCfg := &container.HostConfig{
		Binds:       []string{fmt.Sprintf("%s:/mnt/workspace:rw", spec.HostBindPath)},
		NetworkMode: container.NetworkMode(spec.Network),
	}
	if spec.MemoryLimitMB > 0 {
		hostCfg.Resources.Memory = spec.MemoryLimitMB * 1024 * 1024
	}
	if spec.CPUShares > 0 {
		hostCfg.Resources.CPUShares = spec.CPUShares
	}

	resp, err := r.client.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (r *dockerRuntime) StartContainer(ctx context.Context, id string) error {
	return r.client.ContainerStart(ctx, id, container.StartOptions{})
}

func (r *dockerRuntime) StopContainer(ctx context.Context, id string, timeoutSeconds int) error {
	timeout := timeoutSeconds
	return r.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
}

func (r *dockerRuntime) RemoveContainer(ctx context.Context, id string, force bool) error {
	return r.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
}

func (r *dockerRuntime) InspectContainer(ctx context.Context, id string) (ContainerState, error) {
	info, err := r.client.ContainerInspect(ctx, id)
	if err != nil {
		return ContainerState{}, err
	}
	var state ContainerState
	if info.State != nil {
		state.Running = info.State.Running
		state.ExitCode = info.State.ExitCode
	}
	for _, net := range info.NetworkSettings.Networks {
		if net.IPAddress != "" {
			state.IPAddress = net.IPAddress
			break
		}
	}
	return state, nil
}

func (r *dockerRuntime) ContainerLogs(ctx context.Context, id string, tailLines int) (string, error) {
	opts := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       fmt.Sprintf("%d", tailLines),
	}
	reader, err := r.client.ContainerLogs(ctx, id, opts)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	var sb strings.Builder
	if _, err := stdcopy.StdCopy(&sb, &sb, reader); err != nil && err != io.EOF {
		return sb.String(), err
	}
	return sb.String(), nil
}

func portSet(port string) nat.PortSet {
	if port == "" {
		return nil
	}
	return nat.PortSet{nat.Port(port): {}}
}
