package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultkv/server/pkg/auth"
	"github.com/vaultkv/server/pkg/facade"
)

// demoCmd walks the register -> put -> get -> delete -> unregister
// scenario end to end, printing each step — a scriptable equivalent of
// the facade's own scenario tests, run against a real data directory.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run register/put/get/delete/unregister against --data-dir",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := facadeConfig(cmd)
		if err != nil {
			return err
		}
		f, err := facade.GetOrOpen(cfg)
		if err != nil {
			return err
		}

		priv, pubDER, err := auth.GenerateReferenceKey()
		if err != nil {
			return err
		}
		hash := sha256Sum(pubDER)
		fmt.Printf("1. registering user %s\n", hex.EncodeToString(hash))
		if ok, err := f.AddUser(ctx, pubDER, hash); err != nil || !ok {
			return fmt.Errorf("add_user = (%v, %v)", ok, err)
		}

		user, err := f.GetUser(ctx, hash)
		if err != nil {
			return err
		}

		index, revision, value := []byte("demo-index"), []byte("rev-1"), []byte("hello, vaultkv")
		msg := append(append(append([]byte{}, index...), revision...), value...)
		sig, err := auth.Sign(priv, msg)
		if err != nil {
			return err
		}
		if err := (auth.ECDSASignatureVerifier{}).Verify(pubDER, msg, sig); err != nil {
			return fmt.Errorf("self-check: signature did not verify: %w", err)
		}

		fmt.Println("2. putting a revision")
		if ok, err := f.PutRecord(ctx, user, index, revision, value); err != nil || !ok {
			return fmt.Errorf("put_record = (%v, %v)", ok, err)
		}

		fmt.Println("3. reading it back")
		rv, err := f.GetRevision(ctx, user, index, revision)
		if err != nil || rv == nil {
			return fmt.Errorf("get_revision = (%v, %v)", rv, err)
		}
		fmt.Printf("   got value: %q\n", rv.Value)

		fmt.Println("4. deleting the record")
		if ok, err := f.DeleteRecord(ctx, user, index); err != nil || !ok {
			return fmt.Errorf("delete_record = (%v, %v)", ok, err)
		}

		fmt.Println("5. unregistering the user")
		if ok, err := f.DeleteUser(ctx, user); err != nil || !ok {
			return fmt.Errorf("delete_user = (%v, %v)", ok, err)
		}

		fmt.Println("demo complete")
		return nil
	},
}
