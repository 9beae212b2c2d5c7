package hash

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newHashCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashEmpty(t *testing.T) {
	out, err := execute(t, "0x")
	require.NoError(t, err)
	require.Equal(t, []string{
		"0x786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419",
		"0xd25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce",
	}, strings.Fields(out))
}

func TestHashConcatenates(t *testing.T) {
	joined, err := execute(t, "0x0102")
	require.NoError(t, err)
	split, err := execute(t, "0x01", "0x02")
	require.NoError(t, err)
	require.Equal(t, joined, split)
}

func TestHashDigest(t *testing.T) {
	out, err := execute(t, "--digest", "0x616263")
	require.NoError(t, err)
	// BLAKE2b-256("abc").
	require.Equal(t, "0xbddd813c634239723171ef3fee98579b94964e3bb1cb3e427262c8c068d52319\n", out)
}

func TestHashRejectsBadInput(t *testing.T) {
	_, err := execute(t, "0102")
	require.Error(t, err)
	_, err = execute(t)
	require.Error(t, err)
}
