// worker/pool.go
package worker

import (
	"strconv"
	"sync"
)

type Job[T any] func() T

type Result[T any] struct {
	JobID  string
	Output T
}

// Pool runs jobs on a fixed number of goroutines. Submit jobs, call Close,
// then drain Results until it is closed.
type Pool[T any] struct {
	jobs    chan jobWrapper[T]
	results chan Result[T]
	wg      sync.WaitGroup
	once    sync.Once
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

func NewPool[T any](workerCount int, bufferSize int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool[T]{
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
	}

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		output := job.fn()
		p.results <- Result[T]{
			JobID:  job.id,
			Output: output,
		}
	}
}

// Submit queues a job. It blocks when the job buffer is full and panics
// after Close.
func (p *Pool[T]) Submit(id string, fn Job[T]) {
	p.jobs <- jobWrapper[T]{id: id, fn: fn}
}

// Close stops accepting jobs. Results is closed once the queued jobs finish.
func (p *Pool[T]) Close() {
	p.once.Do(func() { close(p.jobs) })
}

func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Run executes fns with at most workers in flight and returns their outputs
// in input order. Each job is submitted under its index as JobID.
func Run[T any](workers int, fns []Job[T]) []T {
	out := make([]T, len(fns))
	if len(fns) == 0 {
		return out
	}
	p := NewPool[T](workers, len(fns))
	for i, fn := range fns {
		p.Submit(strconv.Itoa(i), fn)
	}
	p.Close()
	for r := range p.Results() {
		i, _ := strconv.Atoi(r.JobID)
		out[i] = r.Output
	}
	return out
}
