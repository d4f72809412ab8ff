package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/pixelroll/internal/workspace"
	"github.com/provide-io/pixelroll/pkg"
	"github.com/provide-io/pixelroll/pkg/config"
	"github.com/provide-io/pixelroll/pkg/logging"
)

const version = "0.1.0"

var (
	logLevel    string
	outputPath  string
	keyPath     string
	format      string
	alpha       int
	iterations  int
	workers     int
	scheme      string
	keyCodec    string
	keyPerms    string
	imagePath   string
	versionFlag bool
	rootCmd     *cobra.Command
)

// commandError marks failures that happened after arguments were accepted,
// so they are not reported as usage errors.
type commandError struct{ err error }

func (e commandError) Error() string { return e.err.Error() }
func (e commandError) Unwrap() error { return e.err }

func getBuilderTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "pixelroll %s\n", version)
	fmt.Fprintf(w, "Built: %s\n", getBuilderTimestamp())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pixelroll",
		Short:         "Reversibly scramble images",
		Long:          `Scramble an image with keyed row/column rolls and XOR diffusion, and restore it with the exported key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, json:<level>)")
	root.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	encryptCmd := &cobra.Command{
		Use:   "encrypt <image>",
		Short: "Scramble an image and write its key",
		Args:  cobra.ExactArgs(1),
		RunE:  runEncrypt,
	}
	encryptCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Scrambled image path (default <name>.scrambled.<format>)")
	encryptCmd.Flags().StringVarP(&keyPath, "key", "k", "", "Key file path (default <name>.key.txt)")
	encryptCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: png, bmp or tiff")
	encryptCmd.Flags().IntVar(&alpha, "alpha", 0, "Key entry bit width, 1..8")
	encryptCmd.Flags().IntVar(&iterations, "iterations", 0, "Number of scrambling rounds")
	encryptCmd.Flags().StringVar(&scheme, "scheme", "", "Key scheme: legacy or matched")
	encryptCmd.Flags().StringVar(&keyCodec, "key-codec", "", "Key file codec: raw, gzip, bzip2, zstd")
	encryptCmd.Flags().StringVar(&keyPerms, "key-perms", "", "Key file permissions in octal (default 0600)")
	encryptCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers per roll stage")

	decryptCmd := &cobra.Command{
		Use:   "decrypt <image>",
		Short: "Restore a scrambled image with its key",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecrypt,
	}
	decryptCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Restored image path (default <name>.restored.<format>)")
	decryptCmd.Flags().StringVarP(&keyPath, "key", "k", "", "Key file path (default <name>.key.txt)")
	decryptCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: png, bmp or tiff")
	decryptCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel workers per roll stage")

	inspectCmd := &cobra.Command{
		Use:   "inspect <keyfile>",
		Short: "Describe a key file and optionally check it against an image",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVarP(&imagePath, "image", "i", "", "Scrambled image to check the key against")

	root.AddCommand(encryptCmd, decryptCmd, inspectCmd)
	return root
}

func init() {
	rootCmd = newRootCmd()
}

func resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	o := config.Overrides{
		LogLevel: logLevel,
		KeyCodec: keyCodec,
		KeyPerms: keyPerms,
		Scheme:   scheme,
	}
	if f := cmd.Flags().Lookup("alpha"); f != nil && f.Changed {
		o.Alpha = &alpha
	}
	if f := cmd.Flags().Lookup("iterations"); f != nil && f.Changed {
		o.Iterations = &iterations
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		o.Workers = &workers
	}
	return config.Resolve(o, nil)
}

func newLogger(cmd *cobra.Command, settings *config.Settings) (hclog.Logger, func() error) {
	out, closer := logging.OpenOutput(cmd.ErrOrStderr())
	logger := logging.NewLogger("pixelroll", settings.LogLevel, out)
	logger.Debug("⚙️ Resolved settings",
		"alpha", settings.Alpha,
		"iterations", settings.Iterations,
		"workers", settings.Workers,
		"scheme", settings.Scheme,
		"key_codec", settings.KeyCodec,
		"key_perms", workspace.FormatOctal(settings.KeyPerms),
		"sources", settings.Sources,
	)
	return logger, closer
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cmd, settings)
	defer closeLog()

	res, err := pkg.EncryptFile(args[0], pkg.EncryptOptions{
		OutputPath: outputPath,
		KeyPath:    keyPath,
		Format:     format,
		Settings:   settings,
		Logger:     logger,
	})
	if err != nil {
		return commandError{err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "image: %s\nkey:   %s\n", res.ImagePath, res.KeyPath)
	return nil
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cmd, settings)
	defer closeLog()

	path := keyPath
	if path == "" {
		path = workspace.NewPaths(args[0]).Key()
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: pass --key (tried %s)", pkg.ErrMissingKey, path)
		}
	}

	out, err := pkg.DecryptFile(args[0], path, pkg.DecryptOptions{
		OutputPath: outputPath,
		Format:     format,
		Settings:   settings,
		Logger:     logger,
	})
	if err != nil {
		return commandError{err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "image: %s\n", out)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	logger, closeLog := newLogger(cmd, settings)
	defer closeLog()

	report, err := pkg.InspectKey(args[0], imagePath, logger)
	if err != nil {
		return commandError{err}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "codec:       %s\n", report.Codec)
	fmt.Fprintf(w, "shape:       %dx%d\n", report.Rows, report.Cols)
	fmt.Fprintf(w, "iterations:  %d\n", report.Iterations)
	fmt.Fprintf(w, "alpha:       %d\n", report.Alpha)
	fmt.Fprintf(w, "scheme:      %s\n", report.Scheme)
	if report.Fingerprint != "" {
		fmt.Fprintf(w, "fingerprint: %s\n", report.Fingerprint)
	}
	if report.ImagePath == "" {
		return nil
	}
	if report.OK() {
		fmt.Fprintf(w, "✓ matches %s\n", report.ImagePath)
		return nil
	}
	for _, p := range report.Problems {
		fmt.Fprintf(w, "✗ %s\n", p)
	}
	return commandError{fmt.Errorf("%w: %s", pkg.ErrKeyMismatch, report.ImagePath)}
}

// exitCode maps an Execute error to a process exit code.
func exitCode(err error) int {
	var cmdErr commandError
	switch {
	case err == nil:
		return pkg.ExitOK
	case errors.As(err, &cmdErr):
		return pkg.ExitCode(cmdErr.err)
	default:
		// flag parsing, argument counts and settings validation
		return pkg.ExitUsage
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion(os.Stdout)
		os.Exit(pkg.ExitOK)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
