package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultkv/server/pkg/facade"
)

var clearNoncesCmd = &cobra.Command{
	Use:   "clear-old-nonces",
	Short: "Force a nonce ledger purge across every registered user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}
		removed, err := f.ClearOldNonces(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("purged %d expired nonce(s)\n", removed)
		return nil
	},
}
