package logengine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

const (
	// DefaultNamespace scopes every writer/replica container the
	// coordinator manages away from other containerd tenants on the host.
	DefaultNamespace = "streamcoord"

	// DefaultSocketPath is the usual containerd control socket.
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// DefaultImage is the OCI image each writer/replica task runs. Every
	// task gets STREAM, NODE and ROLE in its environment, plus EPOCH for a
	// writer (StartWriter) or LEADER_NODE for a replica (StartReplica).
	DefaultImage = "docker.io/library/streamcoord-runtime:latest"

	stopGrace = 10 * time.Second
)

// Containerd is the production cluster.LogEngine: every writer or replica
// is an OCI container task, one per Handle. The Handle-to-container mapping
// is kept in process memory; it is not recovered after a restart.
type Containerd struct {
	client    *containerd.Client
	namespace string
	image     string
	logger    *slog.Logger

	mu      sync.Mutex
	offsets map[cluster.Handle]offsetRecord
}

type offsetRecord struct {
	taskID string
	epoch  int
}

// Config configures a Containerd engine.
type Config struct {
	SocketPath string
	Namespace  string
	Image      string
	Logger     *slog.Logger
}

// New connects to containerd and returns a ready Containerd engine.
func New(cfg Config) (*Containerd, error) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := containerd.New(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("logengine: connect to containerd: %w", err)
	}

	return &Containerd{
		client:    client,
		namespace: cfg.Namespace,
		image:     cfg.Image,
		logger:    cfg.Logger,
		offsets:   make(map[cluster.Handle]offsetRecord),
	}, nil
}

// Close releases the containerd client connection.
func (e *Containerd) Close() error {
	return e.client.Close()
}

func (e *Containerd) ctx(ctx context.Context) context.Context {
	return namespaces.WithNamespace(ctx, e.namespace)
}

// StartWriter implements cluster.LogEngine.
func (e *Containerd) StartWriter(ctx context.Context, stream cluster.StreamID, node cluster.Node, conf cluster.StreamConfig) (cluster.Handle, error) {
	env := []string{
		"STREAM=" + string(stream),
		"NODE=" + string(node),
		"ROLE=writer",
		"EPOCH=" + strconv.Itoa(conf.Epoch),
	}
	return e.startTask(ctx, stream, node, env)
}

// StartReplica implements cluster.LogEngine.
func (e *Containerd) StartReplica(ctx context.Context, stream cluster.StreamID, node cluster.Node, leader cluster.Node) (cluster.Handle, error) {
	env := []string{
		"STREAM=" + string(stream),
		"NODE=" + string(node),
		"ROLE=replica",
		"LEADER_NODE=" + string(leader),
	}
	return e.startTask(ctx, stream, node, env)
}

func (e *Containerd) startTask(ctx context.Context, stream cluster.StreamID, node cluster.Node, env []string) (cluster.Handle, error) {
	ctx = e.ctx(ctx)

	image, err := e.client.GetImage(ctx, e.image)
	if err != nil {
		image, err = e.client.Pull(ctx, e.image, containerd.WithPullUnpack)
		if err != nil {
			return "", fmt.Errorf("logengine: pull %s: %w", e.image, err)
		}
	}

	id := taskID(stream, node)
	container, err := e.client.NewContainer(
		ctx,
		id,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(id+"-snapshot", image),
		containerd.WithNewSpec(oci.WithImageConfig(image), oci.WithEnv(env)),
	)
	if err != nil {
		return "", fmt.Errorf("logengine: create container %s: %w", id, err)
	}

	task, err := container.NewTask(ctx, cio.NullIO)
	if err != nil {
		return "", fmt.Errorf("logengine: create task %s: %w", id, err)
	}
	if err := task.Start(ctx); err != nil {
		return "", fmt.Errorf("logengine: start task %s: %w", id, err)
	}

	h := cluster.Handle(ulid.Make().String())
	e.mu.Lock()
	e.offsets[h] = offsetRecord{taskID: id}
	e.mu.Unlock()

	e.logger.Info("started container task", "handle", h, "container", id, "stream", stream, "node", node)
	return h, nil
}

// Stop implements cluster.LogEngine.
func (e *Containerd) Stop(ctx context.Context, h cluster.Handle) error {
	ctx = e.ctx(ctx)

	e.mu.Lock()
	rec, ok := e.offsets[h]
	delete(e.offsets, h)
	e.mu.Unlock()
	if !ok {
		return nil
	}

	container, err := e.client.LoadContainer(ctx, rec.taskID)
	if err != nil {
		return nil
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		return container.Delete(ctx, containerd.WithSnapshotCleanup)
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopGrace)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		return fmt.Errorf("logengine: kill task %s: %w", rec.taskID, err)
	}

	statusC, err := task.Wait(stopCtx)
	if err != nil {
		return fmt.Errorf("logengine: wait task %s: %w", rec.taskID, err)
	}

	select {
	case <-statusC:
	case <-stopCtx.Done():
		if err := task.Kill(ctx, syscall.SIGKILL); err != nil {
			return fmt.Errorf("logengine: force kill task %s: %w", rec.taskID, err)
		}
	}

	if _, err := task.Delete(ctx); err != nil {
		return fmt.Errorf("logengine: delete task %s: %w", rec.taskID, err)
	}
	return container.Delete(ctx, containerd.WithSnapshotCleanup)
}

// Offset implements cluster.LogEngine. It does not read the stream's log:
// the offset it reports is the task's ExitStatus field (0 while the task
// runs), and the epoch is the one recorded for h, which is set only by
// PromoteToLeader (0 for handles from StartWriter or StartReplica).
func (e *Containerd) Offset(ctx context.Context, h cluster.Handle) (int64, int, error) {
	ctx = e.ctx(ctx)

	e.mu.Lock()
	rec, ok := e.offsets[h]
	e.mu.Unlock()
	if !ok {
		return 0, 0, fmt.Errorf("logengine: unknown handle %s", h)
	}

	container, err := e.client.LoadContainer(ctx, rec.taskID)
	if err != nil {
		return 0, 0, fmt.Errorf("logengine: load container %s: %w", rec.taskID, err)
	}
	task, err := container.Task(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("logengine: task not running for %s: %w", rec.taskID, err)
	}
	status, err := task.Status(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("logengine: status %s: %w", rec.taskID, err)
	}
	if status.Status != containerd.Running {
		return 0, 0, fmt.Errorf("logengine: task %s not running (%s)", rec.taskID, status.Status)
	}

	return int64(status.ExitStatus), rec.epoch, nil
}

// PromoteToLeader implements cluster.LogEngine: the replica task is torn
// down and a fresh writer task started in its place, carrying the epoch
// forward by one.
func (e *Containerd) PromoteToLeader(ctx context.Context, stream cluster.StreamID, h cluster.Handle) (cluster.Handle, error) {
	e.mu.Lock()
	rec, ok := e.offsets[h]
	e.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("logengine: unknown handle %s", h)
	}

	if err := e.Stop(ctx, h); err != nil {
		return "", fmt.Errorf("logengine: stop replica before promote: %w", err)
	}

	node := nodeFromTaskID(rec.taskID)
	newH, err := e.StartWriter(ctx, stream, node, cluster.StreamConfig{Stream: stream, Epoch: rec.epoch + 1})
	if err != nil {
		return "", fmt.Errorf("logengine: promote %s: %w", h, err)
	}

	e.mu.Lock()
	if r, ok := e.offsets[newH]; ok {
		r.epoch = rec.epoch + 1
		e.offsets[newH] = r
	}
	e.mu.Unlock()

	return newH, nil
}

func taskID(stream cluster.StreamID, node cluster.Node) string {
	return fmt.Sprintf("%s--%s", stream, node)
}

func nodeFromTaskID(id string) cluster.Node {
	for i := len(id) - 1; i >= 1; i-- {
		if id[i-1] == '-' && id[i] == '-' {
			return cluster.Node(id[i+1:])
		}
	}
	return cluster.Node(id)
}
