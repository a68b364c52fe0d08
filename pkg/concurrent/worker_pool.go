package concurrent

import (
	"sync"
)

type JobFunc[T any, G any] func(job T) G

type Job[T any] struct {
	idx int
	job T
}

type Result[G any] struct {
	idx int
	res G
}

func (r Result[G]) Index() int {
	return r.idx
}

func (r Result[G]) Value() G {
	return r.res
}

// WorkerPool. fixed number of goroutines draining a job queue. Every job carries the index it was
// submitted with so callers can restore submission order regardless of completion order.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan Result[G]
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], jobQueueSize),
		results:    make(chan Result[G], jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- Result[G]{idx: job.idx, res: jobFunc(job.job)}
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

// Wait. block until every worker returned, then close the results channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(idx int, job T) {
	wp.jobQueue <- Job[T]{idx: idx, job: job}
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan Result[G] {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Map. apply jobFunc to every job on at most numWorkers goroutines; out[i] = jobFunc(jobs[i]).
func Map[T any, G any](numWorkers int, jobs []T, jobFunc JobFunc[T, G]) []G {
	out := make([]G, len(jobs))
	if len(jobs) == 0 {
		return out
	}
	numWorkers = max(1, min(numWorkers, len(jobs)))

	// both queues hold every job, so neither submission nor workers can block.
	wp := NewWorkerPool[T, G](numWorkers, len(jobs))
	wp.Start(jobFunc)
	for i, job := range jobs {
		wp.AddJob(i, job)
	}
	wp.Close()
	wp.Wait()

	for r := range wp.CollectResults() {
		out[r.Index()] = r.Value()
	}
	return out
}
