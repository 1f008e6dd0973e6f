package config

// Config is the root of the YAML configuration. Every section has a default
// that mirrors the built-in simulation parameters, so an empty file (or no
// file at all) yields a fully working setup.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Topology  TopologyConfig  `yaml:"topology"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Export    ExportConfig    `yaml:"export"`
}

type TopologyConfig struct {
	CPUs    []CPUConfig    `yaml:"cpus"`
	Regions []RegionConfig `yaml:"regions"`
}

type CPUConfig struct {
	ID     int    `yaml:"id"`
	Class  string `yaml:"class"` // "fast" or "slow"
	Node   int    `yaml:"node"`
	Online bool   `yaml:"online"`
}

// RegionConfig describes one NUMA memory region. Regions must be ordered and
// non-overlapping; together they cover the simulated address space.
type RegionConfig struct {
	Base uint64 `yaml:"base"`
	Size uint64 `yaml:"size"`
}

type SchedulerConfig struct {
	AgingThreshold  uint32 `yaml:"aging_threshold"`
	AgingBoost      int    `yaml:"aging_boost"`
	LowLatencyBoost int    `yaml:"low_latency_boost"`
	NumaPenaltyCost uint64 `yaml:"numa_penalty_cost"`
	SlowdownFactor  uint64 `yaml:"slowdown_factor"`

	// Power and time accounting for the live switch path.
	FastCorePower  uint64 `yaml:"fast_core_power"`
	SlowCorePower  uint64 `yaml:"slow_core_power"`
	CoreTimeMicros uint64 `yaml:"core_time_micros"`

	// Behavior inference (sliding activity window).
	InferenceWindow    uint32 `yaml:"inference_window"`
	InferenceThreshold uint32 `yaml:"inference_threshold"`

	// Weight sets for the shared scoring function. The live set and the
	// harness sets intentionally differ; they are configuration, not
	// derivations of each other.
	LiveWeights      WeightsConfig `yaml:"live_weights"`
	HintWeights      WeightsConfig `yaml:"hint_weights"`
	InferenceWeights WeightsConfig `yaml:"inference_weights"`
}

// WeightsConfig parameterizes the scoring function. Mismatch weights are
// negative. A zero AgeDivisor disables the age term.
type WeightsConfig struct {
	CoreMatch       int `yaml:"core_match"`
	FastPrefMiss    int `yaml:"fast_pref_miss"`
	SlowPrefMiss    int `yaml:"slow_pref_miss"`
	NumaMatch       int `yaml:"numa_match"`
	NumaMiss        int `yaml:"numa_miss"`
	LowLatencyBonus int `yaml:"low_latency_bonus"`
	WaitingBonus    int `yaml:"waiting_bonus"`
	AgeDivisor      int `yaml:"age_divisor"`
}

type BenchmarkConfig struct {
	DurationTicks uint32 `yaml:"duration_ticks"`
	TickMicros    uint64 `yaml:"tick_micros"`

	// Power accounting for the simulated workload (busy/idle, per core class).
	FastBusyPower uint64 `yaml:"fast_busy_power"`
	SlowBusyPower uint64 `yaml:"slow_busy_power"`
	FastIdlePower uint64 `yaml:"fast_idle_power"`
	SlowIdlePower uint64 `yaml:"slow_idle_power"`
}

type ExportConfig struct {
	SpoolDir string         `yaml:"spool_dir"`
	DB       DatabaseConfig `yaml:"db"`
}

type DatabaseConfig struct {
	Host   string `yaml:"host"`
	Bucket string `yaml:"bucket"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
}

// Enabled reports whether result export to the database is configured.
func (db DatabaseConfig) Enabled() bool {
	return db.Host != "" && db.Bucket != "" && db.Org != ""
}

// Default returns the built-in configuration: 4 CPUs (two fast on node 0, two
// slow on node 1), two 128 MB NUMA regions, and the simulation constants the
// benchmark results are calibrated against.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Topology: TopologyConfig{
			CPUs: []CPUConfig{
				{ID: 0, Class: "fast", Node: 0, Online: true},
				{ID: 1, Class: "fast", Node: 0, Online: true},
				{ID: 2, Class: "slow", Node: 1, Online: true},
				{ID: 3, Class: "slow", Node: 1, Online: true},
			},
			Regions: []RegionConfig{
				{Base: 0x00000000, Size: 0x08000000},
				{Base: 0x08000000, Size: 0x08000000},
			},
		},
		Scheduler: SchedulerConfig{
			AgingThreshold:     100,
			AgingBoost:         5,
			LowLatencyBoost:    10,
			NumaPenaltyCost:    100,
			SlowdownFactor:     2,
			FastCorePower:      100,
			SlowCorePower:      40,
			CoreTimeMicros:     10,
			InferenceWindow:    50,
			InferenceThreshold: 25,
			LiveWeights: WeightsConfig{
				NumaMatch: 5,
			},
			HintWeights: WeightsConfig{
				CoreMatch:       12,
				FastPrefMiss:    -8,
				SlowPrefMiss:    -6,
				NumaMatch:       8,
				NumaMiss:        -6,
				LowLatencyBonus: 15,
				WaitingBonus:    15,
				AgeDivisor:      4,
			},
			InferenceWeights: WeightsConfig{
				CoreMatch:    12,
				FastPrefMiss: -8,
				SlowPrefMiss: -6,
				NumaMatch:    8,
				NumaMiss:     -6,
				WaitingBonus: 5,
				AgeDivisor:   4,
			},
		},
		Benchmark: BenchmarkConfig{
			DurationTicks: 15000,
			TickMicros:    1000,
			FastBusyPower: 120,
			SlowBusyPower: 70,
			FastIdlePower: 30,
			SlowIdlePower: 20,
		},
	}
}
