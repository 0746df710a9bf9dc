package systems

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fbtex/engine/core"
	"github.com/spaghettifunk/fbtex/engine/resources"
)

// BatchResult is the outcome of one image in a LoadBatch call.
type BatchResult struct {
	Name     string
	Resource *resources.Resource
	Elapsed  time.Duration
	Err      error
}

// Image returns the decoded image, or nil when the load failed.
func (br BatchResult) Image() *resources.DecodedImage {
	if br.Resource == nil {
		return nil
	}
	img, _ := br.Resource.Data.(*resources.DecodedImage)
	return img
}

// LoadBatch decodes every name on the job system and returns one result per
// name, in input order. Each load is independent; a failure only marks its
// own entry. Names not yet queued when ctx is done fail with ctx.Err().
func LoadBatch(ctx context.Context, rs *ResourceSystem, js *JobSystem, names []string, params interface{}) []BatchResult {
	batchID := uuid.New()
	results := make([]BatchResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		results[i].Name = name
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		clock := core.NewClock()
		job := NewJobTask(name, func(p interface{}) (interface{}, error) {
			clock.Start()
			defer clock.Stop()
			return rs.Load(p.(string), resources.ResourceTypeImage, params)
		})
		job.OnComplete = func(result interface{}) {
			results[i].Resource = result.(*resources.Resource)
		}
		job.OnFailure = func(err error) {
			results[i].Err = err
		}
		job.OnCompletionCallback = func() {
			results[i].Elapsed = clock.ElapsedDuration()
			wg.Done()
		}

		wg.Add(1)
		if err := js.SubmitContext(ctx, job); err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	core.LogDebug("batch %s: %d loaded, %d failed", batchID, len(names)-failed, failed)

	return results
}
