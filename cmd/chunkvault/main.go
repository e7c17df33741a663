// Copyright 2026 The Chunkvault Authors
// SPDX-License-Identifier: Apache-2.0

// Command chunkvault stores files as bounded-size, compressed,
// encrypted chunks and reconstructs them with end-to-end integrity
// verification.
//
// Usage:
//
//	chunkvault keygen --output identity.key
//	chunkvault store <file> [--name NAME]
//	chunkvault restore <name> [--output PATH]
//	chunkvault verify <name>
//	chunkvault list
//	chunkvault remove <name>
//	chunkvault export <name> [--output PATH]
//	chunkvault import [--input PATH]
//
// Configuration is read from the file named by CHUNKVAULT_CONFIG or
// the --config flag; without either, built-in defaults apply.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/chunkvault/chunkvault/lib/blob"
	"github.com/chunkvault/chunkvault/lib/config"
	"github.com/chunkvault/chunkvault/lib/manifest"
	"github.com/chunkvault/chunkvault/lib/mirror"
	"github.com/chunkvault/chunkvault/lib/secret"
	"github.com/chunkvault/chunkvault/lib/transform"
	"github.com/chunkvault/chunkvault/lib/vault"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := pflag.NewFlagSet("chunkvault", pflag.ContinueOnError)
	configPath := global.String("config", "", "path to configuration file (overrides CHUNKVAULT_CONFIG)")
	verbose := global.BoolP("verbose", "v", false, "enable debug logging")

	// Stop at the first positional argument so subcommand flags are
	// left for the subcommand's own flag set.
	global.SetInterspersed(false)
	if err := global.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("subcommand required (keygen, store, restore, verify, list, remove, export, import)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, commandArgs := rest[0], rest[1:]
	switch command {
	case "keygen":
		return runKeygen(commandArgs)
	case "store":
		return runStore(ctx, cfg, commandArgs)
	case "restore":
		return runRestore(ctx, cfg, commandArgs)
	case "verify":
		return runVerify(ctx, cfg, commandArgs)
	case "list":
		return runList(cfg, commandArgs)
	case "remove":
		return runRemove(cfg, commandArgs)
	case "export":
		return runExport(cfg, commandArgs)
	case "import":
		return runImport(cfg, commandArgs)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// openStores creates the blob and manifest stores from the configured
// paths.
func openStores(cfg *config.Config) (*blob.FSStore, *manifest.Store, error) {
	artifacts, err := blob.NewFSStore(cfg.Paths.Artifacts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening artifact store: %w", err)
	}
	manifests, err := manifest.NewStore(cfg.Paths.Manifests)
	if err != nil {
		return nil, nil, fmt.Errorf("opening manifest store: %w", err)
	}
	return artifacts, manifests, nil
}

// openVault builds a vault from the configuration. When needPrivate
// is set, the age identity is loaded from the configured path into
// guarded memory; the caller must Close the returned buffer.
func openVault(cfg *config.Config, needPrivate bool) (*vault.Vault, *secret.Buffer, error) {
	artifacts, manifests, err := openStores(cfg)
	if err != nil {
		return nil, nil, err
	}

	compression, err := cfg.CompressionTag()
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.CompressionLevel()
	if err != nil {
		return nil, nil, err
	}

	opts := vault.Options{
		Ceiling:     cfg.Chunking.Ceiling,
		Target:      cfg.Chunking.Target,
		Compression: compression,
		Level:       level,
		Workers:     cfg.Workers,
		PublicKey:   cfg.Keys.PublicKey,
	}
	if cfg.CacheBytes > 0 {
		opts.Cache = vault.NewCache(cfg.CacheBytes)
	}

	var privateKey *secret.Buffer
	if needPrivate {
		if cfg.Keys.PrivateKeyPath == "" {
			return nil, nil, fmt.Errorf("keys.private_key_path is not configured")
		}
		privateKey, err = secret.ReadFromPath(cfg.Keys.PrivateKeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading private key: %w", err)
		}
		opts.PrivateKey = privateKey
	}

	v, err := vault.New(artifacts, manifests, opts)
	if err != nil {
		if privateKey != nil {
			privateKey.Close()
		}
		return nil, nil, err
	}
	return v, privateKey, nil
}

func runKeygen(args []string) error {
	flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	output := flags.StringP("output", "o", "", "write the identity to this file instead of stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	keypair, err := transform.GenerateKeypair()
	if err != nil {
		return fmt.Errorf("generating keypair: %w", err)
	}
	defer keypair.Close()

	identity := fmt.Sprintf("# public key: %s\n%s\n", keypair.PublicKey, keypair.PrivateKey.String())

	if *output == "" {
		fmt.Print(identity)
		return nil
	}
	if err := os.WriteFile(*output, []byte(identity), 0o600); err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	fmt.Printf("public key: %s\n", keypair.PublicKey)
	slog.Info("identity written", "path", *output)
	return nil
}

func runStore(ctx context.Context, cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("store", pflag.ContinueOnError)
	name := flags.String("name", "", "logical name for the stored file (default: base name)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: chunkvault store <file> [--name NAME]")
	}
	path := flags.Arg(0)

	if *name == "" {
		*name = filepath.Base(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	v, privateKey, err := openVault(cfg, false)
	if err != nil {
		return err
	}
	if privateKey != nil {
		defer privateKey.Close()
	}

	m, err := v.Store(ctx, *name, data)
	if err != nil {
		return err
	}
	slog.Info("stored",
		"name", m.OriginalName,
		"size", m.OriginalSize,
		"chunks", m.NumChunks(),
		"chunked", m.IsChunked)
	return nil
}

func runRestore(ctx context.Context, cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("restore", pflag.ContinueOnError)
	output := flags.StringP("output", "o", "", "write the file here (default: the stored name, \"-\" for stdout)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: chunkvault restore <name> [--output PATH]")
	}
	name := flags.Arg(0)

	v, privateKey, err := openVault(cfg, true)
	if err != nil {
		return err
	}
	defer privateKey.Close()

	data, err := v.ReconstructName(ctx, name)
	if err != nil {
		return err
	}

	destination := *output
	if destination == "" {
		destination = name
	}
	if destination == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(destination, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", destination, err)
	}
	slog.Info("restored", "name", name, "path", destination, "size", len(data))
	return nil
}

func runVerify(ctx context.Context, cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: chunkvault verify <name>")
	}
	name := flags.Arg(0)

	v, privateKey, err := openVault(cfg, true)
	if err != nil {
		return err
	}
	defer privateKey.Close()

	m, err := v.Manifests().Load(name)
	if err != nil {
		return fmt.Errorf("loading manifest for %q: %w", name, err)
	}
	if err := v.Verify(ctx, m); err != nil {
		return err
	}
	slog.Info("verified", "name", name, "chunks", m.NumChunks())
	return nil
}

func runList(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	_, manifests, err := openStores(cfg)
	if err != nil {
		return err
	}
	names, err := manifests.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runRemove(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("remove", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: chunkvault remove <name>")
	}
	name := flags.Arg(0)

	v, _, err := openVault(cfg, false)
	if err != nil {
		return err
	}
	if err := v.Remove(name); err != nil {
		return err
	}
	slog.Info("removed", "name", name)
	return nil
}

func runExport(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
	output := flags.StringP("output", "o", "-", "write the mirror stream here (\"-\" for stdout)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: chunkvault export <name> [--output PATH]")
	}
	name := flags.Arg(0)

	artifacts, manifests, err := openStores(cfg)
	if err != nil {
		return err
	}
	m, err := manifests.Load(name)
	if err != nil {
		return fmt.Errorf("loading manifest for %q: %w", name, err)
	}

	out := os.Stdout
	if *output != "-" {
		out, err = os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", *output, err)
		}
		defer out.Close()
	}

	if err := mirror.Export(out, m, artifacts); err != nil {
		return err
	}
	slog.Info("exported", "name", name, "chunks", m.NumChunks())
	return nil
}

func runImport(cfg *config.Config, args []string) error {
	flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
	input := flags.StringP("input", "i", "-", "read the mirror stream from here (\"-\" for stdin)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	artifacts, manifests, err := openStores(cfg)
	if err != nil {
		return err
	}

	in := os.Stdin
	if *input != "-" {
		in, err = os.Open(*input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", *input, err)
		}
		defer in.Close()
	}

	m, err := mirror.Import(in, artifacts, manifests)
	if err != nil {
		return err
	}
	slog.Info("imported", "name", m.OriginalName, "chunks", m.NumChunks())
	return nil
}
