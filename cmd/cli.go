package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tuner/internal/config"
	applog "tuner/internal/log"
	"tuner/internal/tui"
	"tuner/pkg/build"
)

// options holds raw flag values. Only flags the user set override the
// loaded configuration.
type options struct {
	configPath      string
	deviceID        int
	sampleRate      float64
	framesPerBuffer int
	minFreq         float64
	maxFreq         float64
	record          bool
	output          string
	verbose         bool
	lowLatency      bool
}

// Execute runs the tuner command line with os.Args. SIGINT and SIGTERM
// cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	root.SetArgs(os.Args[1:])
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	buildInfo := build.Current()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Monophonic instrument tuner using bitstream autocorrelation",
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runTuner(cmd.Context(), cfg, recordingPath(cfg, opts))
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices(cmd.OutOrStdout())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "pick",
		Short: "Choose an input device and sample rate, then start the tuner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			sel, err := pickDevice()
			if err != nil {
				return err
			}
			cfg.Audio.InputDevice = sel.DeviceID
			cfg.Audio.SampleRate = sel.SampleRate
			if err := cfg.Validate(); err != nil {
				return err
			}
			applog.Infof("Selected %s at %.0f Hz", sel.DeviceName, sel.SampleRate)
			return runTuner(cmd.Context(), cfg, recordingPath(cfg, opts))
		},
	})

	rootCmd.AddCommand(newAnalyzeCommand(opts))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Path to a YAML configuration file (default: ./config.yaml)")

	// Audio Device Configuration
	flags.IntVarP(&opts.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.Float64VarP(&opts.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&opts.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.BoolVarP(&opts.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Pitch range
	flags.Float64Var(&opts.minFreq, "min-freq", config.DefaultMinFreq,
		"Lowest detectable fundamental (Hz)")
	flags.Float64Var(&opts.maxFreq, "max-freq", config.DefaultMaxFreq,
		"Highest detectable fundamental (Hz)")

	// Recording Configuration
	flags.BoolVarP(&opts.record, "record", "r", false,
		"Record audio from the specified input device")
	flags.StringVarP(&opts.output, "output", "o", "",
		"Output file name. Default is <output_dir>/recording-DD-MM-YYYY-HHMMSS.wav")

	// Debug Configuration
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	return rootCmd
}

// Seams for tests.
var (
	listDevices = listHostDevices
	pickDevice  = tui.PickDevice
	runTuner    = run
)

// loadConfig reads the configuration file and applies the flags that were
// set on the command line.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Audio.InputDevice = opts.deviceID
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = opts.sampleRate
	}
	if flags.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = opts.framesPerBuffer
	}
	if flags.Changed("low-latency") {
		cfg.Audio.LowLatency = opts.lowLatency
	}
	if flags.Changed("min-freq") {
		cfg.Pitch.MinFreq = opts.minFreq
	}
	if flags.Changed("max-freq") {
		cfg.Pitch.MaxFreq = opts.maxFreq
	}
	if flags.Changed("record") {
		cfg.Recording.Enabled = opts.record
	}
	if flags.Changed("verbose") && opts.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	applog.SetLevel(cfg.Level())
	return cfg, nil
}

// recordingPath returns the WAV destination, or "" when recording is off.
func recordingPath(cfg *config.Config, opts *options) string {
	if !cfg.Recording.Enabled {
		return ""
	}
	if opts.output != "" {
		return opts.output
	}
	name := "recording-" + time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(cfg.Recording.OutputDir, name)
}
