package main

import (
	"fmt"

	ds "github.com/ipfs/go-datastore"
	"github.com/spf13/cobra"

	"github.com/discochess/blobkeep"
)

var putKeyCmd = &cobra.Command{
	Use:   "put-key KEY [FILE]",
	Short: "Store a file (or stdin) under a datastore key",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[1:])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		d, err := s.datastore(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		_, err = d.Put(ctx, ds.NewKey(args[0]), data)
		return err
	},
}

var catKeyCmd = &cobra.Command{
	Use:   "cat-key KEY",
	Short: "Write the value stored under a datastore key to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		d, err := s.datastore(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		data, err := d.Get(ctx, ds.NewKey(args[0]))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var rmKeyCmd = &cobra.Command{
	Use:   "rm-key KEY...",
	Short: "Delete datastore keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		d, err := s.datastore(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		for _, k := range args {
			if err := d.Delete(ctx, ds.NewKey(k)); err != nil {
				return err
			}
		}
		return nil
	},
}

var lsKeysCmd = &cobra.Command{
	Use:   "ls-keys [PREFIX]",
	Short: "List datastore keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var q blobkeep.Query
		q.KeysOnly = true
		if len(args) == 1 {
			q.Prefix = args[0]
		}

		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		d, err := s.datastore(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		it := d.Query(ctx, q)
		defer it.Close()
		for it.Next() {
			fmt.Fprintln(cmd.OutOrStdout(), it.Value().Key)
		}
		return it.Err()
	},
}

func init() {
	rootCmd.AddCommand(putKeyCmd, catKeyCmd, rmKeyCmd, lsKeysCmd)
}
