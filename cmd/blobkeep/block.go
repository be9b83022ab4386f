package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Check that the container exists, creating it with --create",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		bs, err := s.blockstore(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "container %q is ready\n", s.client.Name())
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put [FILE]",
	Short: "Store a file (or stdin) as a raw block and print its CID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		c, err := rawCID(data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		bs, err := s.blockstore(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		if _, err := bs.Put(ctx, c, data); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get CID",
	Short: "Write a block's data to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cid.Decode(args[0])
		if err != nil {
			return fmt.Errorf("parsing CID: %w", err)
		}

		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		bs, err := s.blockstore(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		data, err := bs.Get(ctx, c)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var hasCmd = &cobra.Command{
	Use:   "has CID",
	Short: "Report whether a block is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cid.Decode(args[0])
		if err != nil {
			return fmt.Errorf("parsing CID: %w", err)
		}

		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		bs, err := s.blockstore(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		ok, err := bs.Has(ctx, c)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ok)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm CID...",
	Short: "Delete blocks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cids := make([]cid.Cid, 0, len(args))
		for _, arg := range args {
			c, err := cid.Decode(arg)
			if err != nil {
				return fmt.Errorf("parsing CID %q: %w", arg, err)
			}
			cids = append(cids, c)
		}

		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		bs, err := s.blockstore(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		for _, c := range cids {
			if err := bs.Delete(ctx, c); err != nil {
				return err
			}
		}
		return nil
	},
}

var lsSizes bool

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the CIDs of all stored blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		bs, err := s.blockstore(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		out := cmd.OutOrStdout()
		if !lsSizes {
			it := bs.AllKeys(ctx)
			defer it.Close()
			for it.Next() {
				fmt.Fprintln(out, it.Value())
			}
			return it.Err()
		}

		it := bs.AllBlocks(ctx)
		defer it.Close()
		for it.Next() {
			blk := it.Value()
			fmt.Fprintf(out, "%s\t%d\n", blk.Cid(), len(blk.RawData()))
		}
		return it.Err()
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsSizes, "size", "s", false, "download blocks and print their sizes")
	rootCmd.AddCommand(openCmd, putCmd, getCmd, hasCmd, rmCmd, lsCmd)
}

// readInput reads the file named by args[0], or stdin.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

// rawCID returns the CIDv1 (raw codec, sha2-256) of data.
func rawCID(data []byte) (cid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("hashing data: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}
