package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joncooperworks/keypair/keypair"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Generate the key pair if it does not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.CreateKeyPair(); err != nil {
				return err
			}
			priv, err := a.manager.PrivateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key pair ready:\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  Tag: %s\n", priv.Tag())
			fmt.Fprintf(cmd.OutOrStdout(), "  Fingerprint: %s\n", priv.Fingerprint())
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the public key of the key pair, generating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := a.manager.PublicKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tag: %s\n", pub.Tag())
			fmt.Fprintf(out, "Algorithm: %s-%d\n", keypair.KeyType, pub.Bits())
			fmt.Fprintf(out, "Encryption: %s\n", keypair.Algorithm)
			fmt.Fprintf(out, "Fingerprint (SHA-256): %s\n", pub.Fingerprint())
			return nil
		},
	}
}

func newSelfTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Encrypt and decrypt a known message with the key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.SelfTest(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), keypair.SelfTestPlaintext+" FAILED")
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), keypair.SelfTestPlaintext+" OK")
			return nil
		},
	}
}

func newEncryptCmd(a *app) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt input to the public key and print base64 ciphertext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := readInput(cmd, inPath)
			if err != nil {
				return err
			}
			ciphertext, err := a.manager.Encrypt(plaintext)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(ciphertext))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "read plaintext from file instead of stdin")
	return cmd
}

func newDecryptCmd(a *app) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt base64 ciphertext with the private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := readInput(cmd, inPath)
			if err != nil {
				return err
			}
			ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
			if err != nil {
				return fmt.Errorf("failed to decode base64 ciphertext: %w", err)
			}
			plaintext, err := a.manager.Decrypt(ciphertext)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(plaintext)
			return err
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "read ciphertext from file instead of stdin")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}
