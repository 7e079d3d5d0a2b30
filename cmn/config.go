package cmn

import (
	"sync/atomic"
	"time"
)

// GC tunables, ground: spec.md §6 "Tunables (environment/mount options)".
type GCConf struct {
	BGEnabled       bool          // BG_GC on/off
	MaxVictimSearch int           // MAX_VICTIM_SEARCH
	MinSleep        time.Duration // GC_THREAD_MIN_SLEEP_TIME
	MaxSleep        time.Duration // GC_THREAD_MAX_SLEEP_TIME
	NoGCSleep       time.Duration // GC_THREAD_NOGC_SLEEP_TIME
	IdleTime        time.Duration // extended-action idle linger, ground: lru.go's xactIdleTime
}

// Disk-utilization watermarks, ground: fs.MountpathInfo.IsIdle and lru.go's
// _throttle. No package in this module reads them; the worker's idleness
// check goes through its IdleChecker instead.
type DiskConf struct {
	UtilLowWM  int64 // percent
	UtilHighWM int64 // percent
}

type Config struct {
	GC   GCConf
	Disk DiskConf
}

func DefaultConfig() *Config {
	return &Config{
		GC: GCConf{
			BGEnabled:       true,
			MaxVictimSearch: 4096,
			MinSleep:        30 * time.Second,
			MaxSleep:        90 * time.Second,
			NoGCSleep:       5 * time.Minute,
			IdleTime:        30 * time.Second,
		},
		Disk: DiskConf{
			UtilLowWM:  40,
			UtilHighWM: 60,
		},
	}
}

// globalConfigOwner is the one process-wide singleton this module keeps,
// mirroring the teacher's cmn.GCO: a read-mostly, atomically-swappable
// configuration handle. Unlike GC's own mutable state (dirty/victim maps,
// last_victim, min/max mtime — see spec.md §9), config is not per-filesystem
// GC state, so a single process-wide holder is the idiomatic match here too.
type globalConfigOwner struct {
	c atomic.Value
}

func (g *globalConfigOwner) Get() *Config {
	v, _ := g.c.Load().(*Config)
	if v == nil {
		return DefaultConfig()
	}
	return v
}

func (g *globalConfigOwner) Put(c *Config) { g.c.Store(c) }

// GCO is the package-wide config owner, ground: cmn.GCO in the teacher lineage.
var GCO = &globalConfigOwner{}

func init() { GCO.Put(DefaultConfig()) }
