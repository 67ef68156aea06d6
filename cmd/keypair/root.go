package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/joncooperworks/keypair/config"
	"github.com/joncooperworks/keypair/crypto/keystore"
	"github.com/joncooperworks/keypair/keypair"
	"github.com/joncooperworks/keypair/metrics"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	v           *viper.Viper
	configFile  string
	showMetrics bool

	cfg      *config.Config
	store    keystore.Keystore
	manager  *keypair.Manager
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "keypair",
		Short: "Manage the application RSA key pair in the OS keystore",
		Long: `keypair locates the application's RSA-2048 key pair in the OS keystore,
generating it on first use, and runs encryption with it.

Supported backends:
  - os:     platform keystore (macOS Keychain, Windows Credential Manager, Secret Service)
  - file:   encrypted files in --file-dir
  - memory: process memory only (nothing persists)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (YAML)")
	flags.String("app-id", "", "application identifier the key tag is derived from")
	flags.String("backend", keystore.BackendOS, "keystore backend ("+strings.Join(keystore.ListRegisteredBackends(), ", ")+")")
	flags.String("service-name", keystore.DefaultServiceName, "keyring service name")
	flags.String("keychain-name", "", "macOS keychain name (default login keychain)")
	flags.String("file-dir", "~/.keypair", "directory for the file backend")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.BoolVar(&a.showMetrics, "metrics", false, "print lifecycle counters after the command")

	if err := bindFlags(a.v, rootCmd, configFlags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		a.keyCommand(newCreateCmd),
		a.keyCommand(newShowCmd),
		a.keyCommand(newSelfTestCmd),
		a.keyCommand(newEncryptCmd),
		a.keyCommand(newDecryptCmd),
		a.keyCommand(newListCmd),
		newBackendsCmd(),
	)
	return rootCmd
}

// configFlags maps config keys to the persistent flags that override them.
var configFlags = map[string]string{
	"app_id":        "app-id",
	"backend":       "backend",
	"service_name":  "service-name",
	"keychain_name": "keychain-name",
	"file_dir":      "file-dir",
	"log.level":     "log-level",
	"log.format":    "log-format",
}

// bindFlags binds each config key to the named persistent flag of cmd.
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) error {
	for key, name := range bindings {
		flag := cmd.PersistentFlags().Lookup(name)
		if flag == nil {
			return fmt.Errorf("no flag %q to bind config key %q", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// keyCommand wires a subcommand that needs the keystore and manager.
func (a *app) keyCommand(build func(*app) *cobra.Command) *cobra.Command {
	cmd := build(a)
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd.ErrOrStderr())
	}
	cmd.PostRunE = func(cmd *cobra.Command, args []string) error {
		if a.showMetrics {
			return printMetrics(cmd.OutOrStdout(), a.registry)
		}
		return nil
	}
	return cmd
}

func (a *app) setup(logOut io.Writer) error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	store, err := keystore.NewKeystore(cfg.KeystoreOptions(promptPassword))
	if err != nil {
		return fmt.Errorf("failed to create keystore: %w", err)
	}
	a.store = store

	a.registry = prometheus.NewRegistry()
	a.manager = keypair.NewManager(store, cfg.AppID,
		keypair.WithLogger(cfg.Logger(logOut)),
		keypair.WithMetrics(metrics.NewCollector(a.registry)),
	)
	return nil
}

// promptPassword reads the file backend password from the terminal.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for the keystore password; set %s_PASSPHRASE", config.EnvPrefix)
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// printMetrics writes every gathered counter as name{labels} value.
func printMetrics(w io.Writer, g prometheus.Gatherer) error {
	if g == nil {
		return nil
	}
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
