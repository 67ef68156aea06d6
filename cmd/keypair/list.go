package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joncooperworks/keypair/crypto/keystore"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List key pairs held by the keystore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.store.ListKeys()
			if err != nil {
				return fmt.Errorf("failed to list keys: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No keys found in keystore")
				return nil
			}

			fmt.Fprintf(out, "Keys in keystore (%d):\n", len(keys))
			for _, key := range keys {
				fmt.Fprintf(out, "  - %s (%s-%d)\n", key.Tag, key.KeyType, key.Bits)
			}
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available keystore backends",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range keystore.ListRegisteredBackends() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
