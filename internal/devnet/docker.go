package devnet

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/moby/go-archive"
)

type (
	// ContainerOptions describes a long-running container publishing one TCP port on localhost
	ContainerOptions struct {
		Name  string
		Image string
		Cmd   []string
		Port  int
	}

	// DockerClient wraps the docker engine API
	DockerClient struct {
		cli    *client.Client
		logger *slog.Logger
	}
)

func NewDockerClient() (*DockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}

	return &DockerClient{cli: cli, logger: logger.Named("docker_client")}, nil
}

func (c *DockerClient) Close() error {
	return c.cli.Close()
}

func (c *DockerClient) ImageExists(ctx context.Context, imageName string) (bool, error) {
	_, err := c.cli.ImageInspect(ctx, imageName)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (c *DockerClient) PullImage(ctx context.Context, imageName string) error {
	c.logger.With("image", imageName).Info("pulling docker image")

	resp, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer resp.Close()

	if err := c.drain(resp, "pull"); err != nil {
		return err
	}

	c.logger.With("image", imageName).Info("docker image pulled successfully")
	return nil
}

// BuildImage builds tag from dockerfile, using contextDir as the build context.
func (c *DockerClient) BuildImage(ctx context.Context, contextDir, dockerfile, tag string) error {
	buildContext, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildContext.Close()

	resp, err := c.cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       []string{tag},
		Dockerfile: dockerfile,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	if err := c.drain(resp.Body, "build"); err != nil {
		return err
	}

	c.logger.With("tag", tag).Info("docker image built successfully")
	return nil
}

// StartContainer creates and starts a detached container and returns its ID.
func (c *DockerClient) StartContainer(ctx context.Context, opts ContainerOptions) (string, error) {
	port, err := nat.NewPort("tcp", strconv.Itoa(opts.Port))
	if err != nil {
		return "", fmt.Errorf("invalid port %d: %w", opts.Port, err)
	}

	config := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Cmd,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}
	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: port.Port()}},
		},
	}

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = c.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	c.logger.With("name", opts.Name).With("id", resp.ID).Info("container started")

	return resp.ID, nil
}

// RemoveContainer force-removes a container. A missing container is reported
// as an errdefs not-found error.
func (c *DockerClient) RemoveContainer(ctx context.Context, name string) error {
	return c.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
}

// drain consumes a docker JSON message stream and returns the last reported error.
func (c *DockerClient) drain(r io.Reader, operation string) error {
	scanner := bufio.NewScanner(r)
	var streamErr error
	for scanner.Scan() {
		line := scanner.Text()
		c.logger.Debug(line)

		var msg struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &msg); err == nil && msg.Error != "" {
			streamErr = fmt.Errorf("%s failed: %s", operation, msg.Error)
			c.logger.Error("docker "+operation+" error", "error", msg.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s output: %w", operation, err)
	}

	return streamErr
}
