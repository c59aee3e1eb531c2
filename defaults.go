package dynamodblocal

import "time"

// Default configuration values for New.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them (e.g.,
// 2 * DefaultReadyTimeout).
const (
	// DefaultDownloadURL is the Oregon distribution of DynamoDB Local.
	// The full mirror list is in the AWS developer guide under
	// "Deploying DynamoDB locally on your computer".
	DefaultDownloadURL = "https://s3.us-west-2.amazonaws.com/dynamodb-local/dynamodb_local_latest.tar.gz"

	// DefaultInstallDirName is the directory name under the system temp
	// directory where the distributable is unpacked. The full path is
	// computed as filepath.Join(os.TempDir(), DefaultInstallDirName).
	DefaultInstallDirName = "dynamodb-local"

	// DefaultPort is the port DynamoDB Local listens on when no port is
	// configured, matching the emulator's own default.
	DefaultPort = 8000

	// DefaultReadyTimeout is the maximum time allowed for the emulator to
	// answer its first HTTP request after spawn.
	DefaultReadyTimeout = 3 * time.Second

	// DefaultStopGracePeriod is the maximum time allowed for the emulator to
	// exit after SIGTERM before it is killed.
	DefaultStopGracePeriod = 5 * time.Second

	// DefaultJavaBinary is the executable name probed when locating the
	// runtime, either under the configured runtime home or on PATH.
	DefaultJavaBinary = "java"
)
