// Package parallel runs independent jobs on a bounded worker pool.
//
// WorkerPool is generic over the job result so callers get typed values
// back without assertions. Jobs share nothing through the pool; each result
// is recorded under the id it was submitted with.
package parallel
