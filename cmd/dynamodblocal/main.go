// Command dynamodblocal runs a local DynamoDB emulator in the foreground and
// prints its endpoint. It keeps the emulator up until interrupted, then tears
// it down gracefully.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/dynamodblocal"
)

type runFlags struct {
	port         int
	inMemory     bool
	dbPath       string
	sharedDB     bool
	installDir   string
	sourceURL    string
	javaHome     string
	javaBinary   string
	readyTimeout time.Duration
	stopGrace    time.Duration
	extraArgs    []string
	debug        bool
	verbose      bool
}

func newRootCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "dynamodblocal",
		Short: "Run a local DynamoDB emulator until interrupted",
		Long: `Downloads the emulator on first use, finds a Java runtime, starts the
emulator, waits until it answers, and prints the endpoint. The emulator
runs until SIGINT or SIGTERM, then is shut down gracefully.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.port, "port", dynamodblocal.DefaultPort, "port to listen on (0 picks a free port)")
	f.BoolVar(&flags.inMemory, "in-memory", false, "keep all data in memory, lost on shutdown")
	f.StringVar(&flags.dbPath, "db-path", "", "directory for on-disk database files")
	f.BoolVar(&flags.sharedDB, "shared-db", false, "use a single database file regardless of credentials")
	f.StringVar(&flags.installDir, "install-dir", "", "emulator installation directory (default: system temp)")
	f.StringVar(&flags.sourceURL, "source-url", dynamodblocal.DefaultDownloadURL, "archive URL for the emulator download")
	f.StringVar(&flags.javaHome, "java-home", "", "Java installation root (default: $JAVA_HOME)")
	f.StringVar(&flags.javaBinary, "java-binary", dynamodblocal.DefaultJavaBinary, "name of the Java executable")
	f.DurationVar(&flags.readyTimeout, "ready-timeout", dynamodblocal.DefaultReadyTimeout, "how long to wait for the emulator to answer")
	f.DurationVar(&flags.stopGrace, "stop-grace", dynamodblocal.DefaultStopGracePeriod, "grace period before the emulator is killed")
	f.StringArrayVar(&flags.extraArgs, "extra-arg", nil, "additional emulator argument (repeatable)")
	f.BoolVar(&flags.debug, "debug", false, "pass emulator output through to this terminal")
	f.BoolVar(&flags.verbose, "verbose", false, "enable debug logging")

	return cmd
}

func buildOptions(flags *runFlags) ([]dynamodblocal.Option, error) {
	var opts []dynamodblocal.Option

	switch {
	case flags.inMemory && flags.dbPath != "":
		// Let the constructor produce its canonical error for this.
		opts = append(opts, dynamodblocal.WithInMemory(), dynamodblocal.WithDBPath(flags.dbPath))
	case flags.inMemory:
		opts = append(opts, dynamodblocal.WithInMemory())
	case flags.dbPath != "":
		opts = append(opts, dynamodblocal.WithDBPath(flags.dbPath))
	}

	switch {
	case flags.port < 0:
		return nil, fmt.Errorf("invalid port %d", flags.port)
	case flags.port == 0 && !flags.inMemory:
		return nil, fmt.Errorf("--port 0 requires --in-memory")
	case flags.port > 0:
		opts = append(opts, dynamodblocal.WithPort(flags.port))
	}
	if flags.sharedDB {
		opts = append(opts, dynamodblocal.WithSharedDB())
	}
	if flags.installDir != "" {
		opts = append(opts, dynamodblocal.WithInstallDir(flags.installDir))
	}
	if flags.sourceURL != "" {
		opts = append(opts, dynamodblocal.WithSourceURL(flags.sourceURL))
	}
	if flags.javaHome != "" {
		opts = append(opts, dynamodblocal.WithJavaHome(flags.javaHome))
	}
	if flags.javaBinary != "" {
		opts = append(opts, dynamodblocal.WithJavaBinary(flags.javaBinary))
	}
	if flags.debug {
		opts = append(opts, dynamodblocal.WithDebug())
	}
	if len(flags.extraArgs) > 0 {
		opts = append(opts, dynamodblocal.WithExtraArgs(flags.extraArgs...))
	}
	opts = append(opts,
		dynamodblocal.WithReadyTimeout(flags.readyTimeout),
		dynamodblocal.WithStopGracePeriod(flags.stopGrace),
	)
	return opts, nil
}

func run(ctx context.Context, flags *runFlags) error {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	dynamodblocal.SetLogger(logger)

	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	var inst *dynamodblocal.Instance
	if flags.port == 0 && flags.inMemory {
		inst, err = dynamodblocal.NewInMemory(opts...)
	} else {
		inst, err = dynamodblocal.New(opts...)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return inst.Run(ctx, func(inst *dynamodblocal.Instance) error {
		fmt.Println(inst.Endpoint())
		logger.Info("emulator ready", "endpoint", inst.Endpoint(), "pid", os.Getpid())
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	})
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
