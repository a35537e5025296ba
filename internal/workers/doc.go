/*
Package workers sizes worker pools from the CPUs available to the process.

runtime.NumCPU reports the host's CPUs, while GOMAXPROCS follows container
CPU limits, so pool sizes are derived from GOMAXPROCS:

	// Artifact reads while materializing thumbnails, at most 8 at a time
	n := workers.ForIO(8)

Operators can pin the count with the MATERIALIZE_WORKERS environment
variable. Invalid or non-positive values are ignored.
*/
package workers
