package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultkv/server/pkg/facade"
)

var registerCmd = &cobra.Command{
	Use:   "register <public-key-hex>",
	Short: "Register a user from a hex-encoded public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("decode public key: %w", err)
		}

		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}

		hash := sha256Sum(pub)
		ok, err := f.AddUser(context.Background(), pub, hash)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user already registered: %s", hex.EncodeToString(hash))
		}
		fmt.Printf("registered user %s\n", hex.EncodeToString(hash))
		return nil
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister <public-hash-hex>",
	Short: "Delete a registered user and cascade into their records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("decode public hash: %w", err)
		}

		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		user, err := f.GetUser(ctx, hash)
		if err != nil {
			return err
		}
		ok, err := f.DeleteUser(ctx, user)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user not found: %s", args[0])
		}
		fmt.Printf("deleted user %s\n", args[0])
		return nil
	},
}
