package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultkv/server/pkg/facade"
)

var putCmd = &cobra.Command{
	Use:   "put <public-hash-hex> <index-hex> <revision-hex> <value-hex>",
	Short: "Put a (revision, value) pair under a user's index",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}
		hash, index, revision, value, err := decodeArgs(args)
		if err != nil {
			return err
		}

		ctx := context.Background()
		user, err := f.GetUser(ctx, hash)
		if err != nil {
			return err
		}
		ok, err := f.PutRecord(ctx, user, index, revision, value)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("revision already exists under this index")
		}
		fmt.Println("put ok")
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <public-hash-hex> <index-hex>",
	Short: "List every (revision, value) pair stored under a user's index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}
		hash, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("decode public hash: %w", err)
		}
		index, err := hex.DecodeString(args[1])
		if err != nil {
			return fmt.Errorf("decode index: %w", err)
		}

		ctx := context.Background()
		user, err := f.GetUser(ctx, hash)
		if err != nil {
			return err
		}
		record, err := f.GetRecord(ctx, user, index)
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Println("(no such index)")
			return nil
		}
		for _, rv := range record {
			fmt.Printf("%s -> %s\n", hex.EncodeToString(rv.Revision), hex.EncodeToString(rv.Value))
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <public-hash-hex> <index-hex>",
	Short: "Delete an index and every revision beneath it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}
		hash, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("decode public hash: %w", err)
		}
		index, err := hex.DecodeString(args[1])
		if err != nil {
			return fmt.Errorf("decode index: %w", err)
		}

		ctx := context.Background()
		user, err := f.GetUser(ctx, hash)
		if err != nil {
			return err
		}
		ok, err := f.DeleteRecord(ctx, user, index)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("index not found")
		}
		fmt.Println("delete ok")
		return nil
	},
}

func decodeArgs(args []string) (hash, index, revision, value []byte, err error) {
	hash, err = hex.DecodeString(args[0])
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("decode public hash: %w", err)
	}
	index, err = hex.DecodeString(args[1])
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("decode index: %w", err)
	}
	revision, err = hex.DecodeString(args[2])
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("decode revision: %w", err)
	}
	value, err = hex.DecodeString(args[3])
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("decode value: %w", err)
	}
	return hash, index, revision, value, nil
}
