// Package hash implements the hash sub-command.
package hash

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/0glabs/storage-ops/hashing"
)

func newHashCmd() *cobra.Command {
	var digest bool
	cmd := &cobra.Command{
		Use:   "hash <0x-hex>...",
		Short: "Blake2b-hash the concatenation of hex inputs",
		Long: "Prints the Blake2b-512 hash of the concatenated inputs as the two 32-byte words\n" +
			"the on-chain utility returns, or with --digest the Blake2b-256 history digest.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parts := make([][]byte, len(args))
			for i, arg := range args {
				b, err := hexutil.Decode(arg)
				if err != nil {
					return fmt.Errorf("input %d: %w", i, err)
				}
				parts[i] = b
			}
			out := cmd.OutOrStdout()
			if digest {
				fmt.Fprintln(out, hashing.Digest(parts...).String())
				return nil
			}
			hi, lo := hashing.Split(hashing.Blake2b(parts...))
			fmt.Fprintln(out, hexutil.Encode(hi[:]))
			fmt.Fprintln(out, hexutil.Encode(lo[:]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&digest, "digest", false, "print the Blake2b-256 history digest instead")
	return cmd
}

// Register registers the hash sub-command.
func Register(parentCmd *cobra.Command) {
	parentCmd.AddCommand(newHashCmd())
}
