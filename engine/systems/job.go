package systems

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fbtex/engine/core"
)

/** @brief Describes a job to be run on the job system. */
type JobTask struct {
	/** @brief Unique job identifier, used to correlate log lines. */
	ID uuid.UUID
	/** @brief Data passed to OnStart. */
	InputParams interface{}
	/** @brief Required. Runs on a worker. */
	OnStart func(params interface{}) (interface{}, error)
	/** @brief Optional. Called with the result of a successful OnStart. */
	OnComplete func(result interface{})
	/** @brief Optional. Called when OnStart returned an error. */
	OnFailure func(err error)
	/** @brief Optional. Always called last, success or not. */
	OnCompletionCallback func()
}

func NewJobTask(params interface{}, start func(interface{}) (interface{}, error)) JobTask {
	return JobTask{
		ID:          uuid.New(),
		InputParams: params,
		OnStart:     start,
	}
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system already shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan JobTask, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if job.OnCompletionCallback != nil {
		defer job.OnCompletionCallback()
	}

	result, err := job.OnStart(job.InputParams)
	if err != nil {
		core.LogDebug("job %s failed: %s", job.ID, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete(result)
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run; Shutdown returns
 * once every worker has drained the queue.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return ErrJobSystemClosed
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 */
func (js *JobSystem) Submit(jt JobTask) error {
	return js.SubmitContext(context.Background(), jt)
}

// SubmitContext is Submit that gives up when ctx is done before the job
// could be queued.
func (js *JobSystem) SubmitContext(ctx context.Context, jt JobTask) error {
	if jt.OnStart == nil {
		return fmt.Errorf("job %s has no OnStart", jt.ID)
	}

	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return ErrJobSystemClosed
	}

	select {
	case js.jobQueue <- jt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
