// Package mono provides a process-monotonic nanosecond clock, used for
// idleness/throttle computations that must not be upset by wall-clock
// adjustments. Ground: the teacher lineage's cmn/mono, called from
// fs.MountpathInfo.IsIdle and lru.go's _throttle.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since package init, using the
// runtime's monotonic clock reading under the hood (time.Since never
// strips the monotonic component unless the Time crosses serialization).
// It is for relative/interval use only — never compare across processes.
func NanoTime() int64 {
	return int64(time.Since(start))
}
