// Package config implements the single configuration object of the
// driver. Every tunable the controller, its classifiers, the safety
// layer and the client loop use is stored here, with Default returning
// the values the hand-tuned driver was built around.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Axis names accepted in DriverConfig.Axes
const (
	Steer  = "steer"
	Accel  = "accel"
	Gear   = "gear"
	Clutch = "clutch"
)

// Driving modes
const (
	Train = "train" // ε-greedy selection with online updates
	Drive = "drive" // greedy selection, tables are never written
)

// Epsilon decay schedules
const (
	Linear     = "linear"
	Hyperbolic = "hyperbolic"
)

// Update rules
const (
	Accumulate = "accumulate"
	TD         = "td"
)

// EnvPrefix is the prefix of environment variables overriding config
// keys, e.g. TORCSRL_LEARNER_EPSILON=0.5
const EnvPrefix = "TORCSRL"

// Config is the complete configuration of a driver process
type Config struct {
	Learner     LearnerConfig     `mapstructure:"learner" yaml:"learner"`
	Driver      DriverConfig      `mapstructure:"driver" yaml:"driver"`
	Safety      SafetyConfig      `mapstructure:"safety" yaml:"safety"`
	Physics     PhysicsConfig     `mapstructure:"physics" yaml:"physics"`
	Persistence PersistenceConfig `mapstructure:"persistence" yaml:"persistence"`
	Transport   TransportConfig   `mapstructure:"transport" yaml:"transport"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// LearnerConfig configures the tabular Q-learning engine shared by all
// learning axes
type LearnerConfig struct {
	LearningRate float64 `mapstructure:"learningRate" yaml:"learningRate"`
	Discount     float64 `mapstructure:"discount" yaml:"discount"`
	Epsilon      float64 `mapstructure:"epsilon" yaml:"epsilon"`

	// DecayStep is the amount ε is lowered each epoch under the linear
	// schedule, DecayK the epoch weight of the hyperbolic schedule
	DecayStep float64 `mapstructure:"decayStep" yaml:"decayStep"`
	DecayK    float64 `mapstructure:"decayK" yaml:"decayK"`
	MaxEpochs int     `mapstructure:"maxEpochs" yaml:"maxEpochs"`

	Rule        string  `mapstructure:"rule" yaml:"rule"`
	MaxAbsValue float64 `mapstructure:"maxAbsValue" yaml:"maxAbsValue"`
	Seed        uint64  `mapstructure:"seed" yaml:"seed"`
}

// AxisConfig configures a single control axis of the driver
type AxisConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Schedule string `mapstructure:"schedule" yaml:"schedule"`

	// The Q-table of the axis is updated on every Every'th tick, or
	// whenever Interval has elapsed since the last update. Zero
	// disables the respective rule.
	Every    int           `mapstructure:"every" yaml:"every"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// DriverConfig configures the episode controller
type DriverConfig struct {
	Mode  string       `mapstructure:"mode" yaml:"mode"`
	Axes  []AxisConfig `mapstructure:"axes" yaml:"axes"`
	Track string       `mapstructure:"track" yaml:"track"`
	Stage string       `mapstructure:"stage" yaml:"stage"`

	LapTimeLimit    float64 `mapstructure:"lapTimeLimit" yaml:"lapTimeLimit"`
	OffTrackPenalty float64 `mapstructure:"offTrackPenalty" yaml:"offTrackPenalty"`
}

// SafetyConfig holds the constants of the stuck recovery, ABS and
// clutch heuristics
type SafetyConfig struct {
	StuckAngle float64 `mapstructure:"stuckAngle" yaml:"stuckAngle"`
	StuckTime  int     `mapstructure:"stuckTime" yaml:"stuckTime"`

	WheelRadius [4]float64 `mapstructure:"wheelRadius" yaml:"wheelRadius"`
	AbsSlip     float64    `mapstructure:"absSlip" yaml:"absSlip"`
	AbsRange    float64    `mapstructure:"absRange" yaml:"absRange"`
	AbsMinSpeed float64    `mapstructure:"absMinSpeed" yaml:"absMinSpeed"`

	ClutchMax         float64 `mapstructure:"clutchMax" yaml:"clutchMax"`
	ClutchDelta       float64 `mapstructure:"clutchDelta" yaml:"clutchDelta"`
	ClutchDeltaTime   float64 `mapstructure:"clutchDeltaTime" yaml:"clutchDeltaTime"`
	ClutchDeltaRaced  float64 `mapstructure:"clutchDeltaRaced" yaml:"clutchDeltaRaced"`
	ClutchDec         float64 `mapstructure:"clutchDec" yaml:"clutchDec"`
	ClutchMaxModifier float64 `mapstructure:"clutchMaxModifier" yaml:"clutchMaxModifier"`
	ClutchMaxTime     float64 `mapstructure:"clutchMaxTime" yaml:"clutchMaxTime"`
}

// PhysicsConfig holds the steering, speed and gearbox constants used by
// the classifiers and their decoders
type PhysicsConfig struct {
	SteerLock              float64 `mapstructure:"steerLock" yaml:"steerLock"`
	SteerSensitivityOffset float64 `mapstructure:"steerSensitivityOffset" yaml:"steerSensitivityOffset"`
	WheelSensitivityCoeff  float64 `mapstructure:"wheelSensitivityCoeff" yaml:"wheelSensitivityCoeff"`

	MaxSpeedDist    float64 `mapstructure:"maxSpeedDist" yaml:"maxSpeedDist"`
	MaxSpeed        float64 `mapstructure:"maxSpeed" yaml:"maxSpeed"`
	Sin5            float64 `mapstructure:"sin5" yaml:"sin5"`
	Cos5            float64 `mapstructure:"cos5" yaml:"cos5"`
	LimiterThrottle float64 `mapstructure:"limiterThrottle" yaml:"limiterThrottle"`

	GearUp   [6]float64 `mapstructure:"gearUp" yaml:"gearUp"`
	GearDown [6]float64 `mapstructure:"gearDown" yaml:"gearDown"`
}

// PersistenceConfig determines where tables and statistics are stored.
// An empty path disables the respective tracker.
type PersistenceConfig struct {
	TableDir        string `mapstructure:"tableDir" yaml:"tableDir"`
	StatsTrain      string `mapstructure:"statsTrain" yaml:"statsTrain"`
	StatsTest       string `mapstructure:"statsTest" yaml:"statsTest"`
	RunLog          string `mapstructure:"runLog" yaml:"runLog"`
	Chart           string `mapstructure:"chart" yaml:"chart"`
	Returns         string `mapstructure:"returns" yaml:"returns"`
	EpisodeLengths  string `mapstructure:"episodeLengths" yaml:"episodeLengths"`
	CheckpointEvery int    `mapstructure:"checkpointEvery" yaml:"checkpointEvery"`
}

// TransportConfig configures the connection to the race server
type TransportConfig struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	ID          string        `mapstructure:"id" yaml:"id"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxEpisodes int           `mapstructure:"maxEpisodes" yaml:"maxEpisodes"`
	MaxSteps    int           `mapstructure:"maxSteps" yaml:"maxSteps"`
}

// MetricsConfig configures the prometheus endpoint, disabled when Addr
// is empty
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Learner: LearnerConfig{
			LearningRate: 0.2,
			Discount:     0.85,
			Epsilon:      1.0,
			DecayStep:    0.01,
			DecayK:       4.7,
			MaxEpochs:    250,
			Rule:         Accumulate,
			MaxAbsValue:  1e12,
			Seed:         1,
		},
		Driver: DriverConfig{
			Mode: Train,
			Axes: []AxisConfig{
				{Name: Steer, Schedule: Hyperbolic, Every: 5},
				{Name: Accel, Schedule: Hyperbolic, Every: 5},
				{Name: Gear, Schedule: Hyperbolic, Every: 5},
			},
			Track:           "unknown",
			Stage:           "race",
			LapTimeLimit:    240,
			OffTrackPenalty: -1000,
		},
		Safety: SafetyConfig{
			StuckAngle:        0.523598775,
			StuckTime:         25,
			WheelRadius:       [4]float64{0.3179, 0.3179, 0.3276, 0.3276},
			AbsSlip:           2.0,
			AbsRange:          3.0,
			AbsMinSpeed:       3.0,
			ClutchMax:         0.5,
			ClutchDelta:       0.05,
			ClutchDeltaTime:   0.02,
			ClutchDeltaRaced:  10,
			ClutchDec:         0.01,
			ClutchMaxModifier: 1.3,
			ClutchMaxTime:     1.5,
		},
		Physics: PhysicsConfig{
			SteerLock:              0.785398,
			SteerSensitivityOffset: 80.0,
			WheelSensitivityCoeff:  1.0,
			MaxSpeedDist:           70,
			MaxSpeed:               150,
			Sin5:                   0.08716,
			Cos5:                   0.99619,
			LimiterThrottle:        0.3,
			GearUp:                 [6]float64{5000, 6000, 6000, 6500, 7000, 0},
			GearDown:               [6]float64{0, 2500, 3000, 3000, 3500, 3500},
		},
		Persistence: PersistenceConfig{
			TableDir:   ".",
			StatsTrain: "StatisticsTrain.csv",
			StatsTest:  "StatisticsTest.csv",
		},
		Transport: TransportConfig{
			Host:        "localhost",
			Port:        3001,
			ID:          "championship2011",
			Timeout:     10 * time.Second,
			MaxEpisodes: 1,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load loads a configuration from the YAML file at path. Keys missing
// from the file keep their default value, and any key can be overridden
// by an environment variable named EnvPrefix_SECTION_KEY. If path is
// empty, the defaults with environment overrides are returned.
func Load(path string) (Config, error) {
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return Config{}, fmt.Errorf("load: could not encode defaults: %w", err)
	}

	vp := viper.New()
	vp.SetConfigType("yaml")
	if err := vp.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, fmt.Errorf("load: could not read defaults: %w", err)
	}

	if path != "" {
		vp.SetConfigFile(path)
		if err := vp.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("load: could not read %v: %w", path, err)
		}
	}

	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load: could not decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return cfg, nil
}

// Write writes the configuration as YAML to the file at path
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("write: could not encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Axis returns the configuration of the named axis and whether the axis
// is active
func (c Config) Axis(name string) (AxisConfig, bool) {
	for _, axis := range c.Driver.Axes {
		if axis.Name == name {
			return axis, true
		}
	}
	return AxisConfig{}, false
}

// Learning returns whether the configuration describes a training run
func (c Config) Learning() bool {
	return c.Driver.Mode == Train
}

// StatsPath returns the statistics file of the configured mode
func (c Config) StatsPath() string {
	if c.Learning() {
		return c.Persistence.StatsTrain
	}
	return c.Persistence.StatsTest
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if err := c.Learner.Validate(); err != nil {
		return err
	}
	if err := c.Driver.Validate(); err != nil {
		return err
	}
	if err := c.Safety.Validate(); err != nil {
		return err
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	return c.Transport.Validate()
}

// Validate ensures that the LearnerConfig is valid
func (l LearnerConfig) Validate() error {
	if l.LearningRate <= 0 || l.LearningRate > 1 {
		return fmt.Errorf("learning rate must be in (0, 1]")
	}
	if l.Discount < 0 || l.Discount > 1 {
		return fmt.Errorf("discount must be in [0, 1]")
	}
	if l.Epsilon < 0 || l.Epsilon > 1 {
		return fmt.Errorf("epsilon must be in [0, 1]")
	}
	if l.DecayStep < 0 || l.DecayK < 0 {
		return fmt.Errorf("decay parameters cannot be negative")
	}
	if l.MaxEpochs <= 0 {
		return fmt.Errorf("max epochs must be positive")
	}
	if l.Rule != Accumulate && l.Rule != TD {
		return fmt.Errorf("unknown update rule %q", l.Rule)
	}
	if l.MaxAbsValue <= 0 {
		return fmt.Errorf("max absolute value must be positive")
	}
	return nil
}

// Validate ensures that the DriverConfig is valid
func (d DriverConfig) Validate() error {
	if d.Mode != Train && d.Mode != Drive {
		return fmt.Errorf("unknown mode %q", d.Mode)
	}

	seen := make(map[string]bool)
	for _, axis := range d.Axes {
		switch axis.Name {
		case Steer, Accel, Gear, Clutch:
		default:
			return fmt.Errorf("unknown axis %q", axis.Name)
		}
		if seen[axis.Name] {
			return fmt.Errorf("axis %q configured twice", axis.Name)
		}
		seen[axis.Name] = true

		if axis.Schedule != Linear && axis.Schedule != Hyperbolic {
			return fmt.Errorf("axis %v: unknown schedule %q", axis.Name,
				axis.Schedule)
		}
		if axis.Every < 0 || axis.Interval < 0 {
			return fmt.Errorf("axis %v: update cadence cannot be negative",
				axis.Name)
		}
	}

	// Both axes command the gearbox
	if seen[Gear] && seen[Clutch] {
		return fmt.Errorf("gear and clutch axes cannot both be active")
	}

	if d.LapTimeLimit <= 0 {
		return fmt.Errorf("lap time limit must be positive")
	}
	return nil
}

// Validate ensures that the SafetyConfig is valid
func (s SafetyConfig) Validate() error {
	if s.StuckAngle <= 0 {
		return fmt.Errorf("stuck angle must be positive")
	}
	if s.StuckTime < 0 {
		return fmt.Errorf("stuck time cannot be negative")
	}
	if s.AbsRange <= 0 {
		return fmt.Errorf("abs range must be positive")
	}
	for _, r := range s.WheelRadius {
		if r <= 0 {
			return fmt.Errorf("wheel radius must be positive")
		}
	}
	if s.ClutchMax < 0 || s.ClutchMax > 1 {
		return fmt.Errorf("clutch max must be in [0, 1]")
	}
	return nil
}

// Validate ensures that the PhysicsConfig is valid
func (p PhysicsConfig) Validate() error {
	if p.SteerLock <= 0 {
		return fmt.Errorf("steer lock must be positive")
	}
	if p.MaxSpeedDist <= 0 {
		return fmt.Errorf("max speed distance must be positive")
	}
	if p.LimiterThrottle < 0 || p.LimiterThrottle > 1 {
		return fmt.Errorf("limiter throttle must be in [0, 1]")
	}
	return nil
}

// Validate ensures that the TransportConfig is valid
func (t TransportConfig) Validate() error {
	if t.Port <= 0 || t.Port > 65535 {
		return fmt.Errorf("port %v out of range", t.Port)
	}
	if t.MaxEpisodes < 0 || t.MaxSteps < 0 {
		return fmt.Errorf("episode and step limits cannot be negative")
	}
	return nil
}
