package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alecbaum/wagl-backend-sub002/internal/relay"
	pkglog "github.com/alecbaum/wagl-backend-sub002/pkg/log"
)

// TaskKind selects the relay endpoint a task targets.
type TaskKind string

const (
	TaskConnect    TaskKind = "connect"
	TaskDisconnect TaskKind = "disconnect"
	TaskMessage    TaskKind = "message"
)

// Task is a single fire-and-forget relay delivery. Failures are
// logged and dropped; session state never rolls back on delivery
// errors.
type Task struct {
	Kind          TaskKind
	SessionID     string
	RoomID        string
	ParticipantID string
	DisplayName   string
	RelayRoom     int
	Content       string
}

// RelaySender is the slice of the relay client the dispatcher needs.
type RelaySender interface {
	Connect(ctx context.Context, req relay.ConnectRequest) error
	Disconnect(ctx context.Context, req relay.ConnectRequest) error
	SendMessage(ctx context.Context, req relay.MessageRequest) error
}

// Dispatcher delivers relay tasks through a bounded worker pool.
type Dispatcher struct {
	sender   RelaySender
	workers  int
	queue    chan *Task
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	taskTTL  time.Duration
	stopOnce sync.Once
}

// Config holds worker pool sizing.
type Config struct {
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	TaskTTL   time.Duration `mapstructure:"task_ttl"`
}

func New(sender RelaySender, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.TaskTTL <= 0 {
		cfg.TaskTTL = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		sender:  sender,
		workers: cfg.Workers,
		queue:   make(chan *Task, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		taskTTL: cfg.TaskTTL,
	}
}

// Start launches the delivery workers.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	l := pkglog.L()
	l.Info().Int("workers", d.workers).Msg("relay dispatcher started")
}

// Stop drains the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
		d.cancel()
		l := pkglog.L()
		l.Info().Msg("relay dispatcher stopped")
	})
}

// Enqueue queues a delivery. A full queue drops the task; the caller
// already committed its state change and must not fail on delivery.
func (d *Dispatcher) Enqueue(task *Task) error {
	select {
	case d.queue <- task:
		return nil
	case <-d.ctx.Done():
		return fmt.Errorf("dispatcher is stopped")
	default:
		return fmt.Errorf("dispatch queue is full")
	}
}

// QueueLength returns the current number of pending tasks.
func (d *Dispatcher) QueueLength() int {
	return len(d.queue)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for task := range d.queue {
		d.deliver(task)
	}
}

func (d *Dispatcher) deliver(task *Task) {
	ctx, cancel := context.WithTimeout(d.ctx, d.taskTTL)
	defer cancel()

	var err error
	switch task.Kind {
	case TaskConnect:
		err = d.sender.Connect(ctx, relay.ConnectRequest{
			Username: task.DisplayName,
			UniqueID: task.ParticipantID,
			Room:     task.RelayRoom,
		})
	case TaskDisconnect:
		err = d.sender.Disconnect(ctx, relay.ConnectRequest{
			Username: task.DisplayName,
			UniqueID: task.ParticipantID,
			Room:     task.RelayRoom,
		})
	case TaskMessage:
		err = d.sender.SendMessage(ctx, relay.MessageRequest{
			Message: task.Content,
			UserID:  task.ParticipantID,
			Room:    task.RelayRoom,
		})
	default:
		err = fmt.Errorf("unknown task kind %q", task.Kind)
	}

	l := pkglog.L()
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldSessionID, task.SessionID).
			Str(pkglog.FieldRoomID, task.RoomID).
			Str(pkglog.FieldParticipantID, task.ParticipantID).
			Int(pkglog.FieldRelayRoom, task.RelayRoom).
			Str("kind", string(task.Kind)).
			Msg("relay delivery failed")
		return
	}
	l.Debug().
		Str(pkglog.FieldRoomID, task.RoomID).
		Int(pkglog.FieldRelayRoom, task.RelayRoom).
		Str("kind", string(task.Kind)).
		Msg("relay delivery complete")
}
