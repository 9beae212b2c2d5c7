package hashing

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func word(t *testing.T, s string) [32]byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	var w [32]byte
	copy(w[:], b)
	return w
}

func TestBlake2bEmpty(t *testing.T) {
	// Reference value for BLAKE2b-512("").
	expected := "786a02f742015903c6c6fd852552d272912f4740e15847618a86e217f71f5419" +
		"d25e1031afee585313896444934eb04b903a685b1448b755d56f701afe9be2ce"
	sum := Blake2b()
	require.Equal(t, expected, hex.EncodeToString(sum[:]))
}

func TestBlake2bConcatenation(t *testing.T) {
	w0 := word(t, "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f")
	w1 := word(t, "101112131415161718191a1b1c1d1e1f101112131415161718191a1b1c1d1e1f")
	w2 := word(t, "202122232425262728292a2b2c2d2e2f202122232425262728292a2b2c2d2e2f")

	require.Equal(t, blake2b.Sum512(w0[:]), Blake2b(w0[:]))

	pair := blake2b.Sum512(bytes.Join([][]byte{w0[:], w1[:]}, nil))
	require.Equal(t, pair, Blake2b(w0[:], w1[:]))
	require.Equal(t, pair, Blake2bPair(w0, w1))

	triple := blake2b.Sum512(bytes.Join([][]byte{w0[:], w1[:], w2[:]}, nil))
	require.Equal(t, triple, Blake2bTriple(w0, w1, w2))

	five := blake2b.Sum512(bytes.Join([][]byte{w0[:], w1[:], w2[:], w0[:], w1[:]}, nil))
	require.Equal(t, five, Blake2bFive(w0, w1, w2, w0, w1))

	large := make([][]byte, 20)
	for i := range large {
		large[i] = w0[:]
	}
	require.Equal(t, blake2b.Sum512(bytes.Join(large, nil)), Blake2b(large...))
}

func TestSplit(t *testing.T) {
	sum := Blake2b([]byte("chunk"))
	hi, lo := Split(sum)
	require.Equal(t, sum[:32], hi[:])
	require.Equal(t, sum[32:], lo[:])
}

func TestDigest(t *testing.T) {
	d := Digest([]byte("ab"), []byte("c"))
	require.Equal(t, blake2b.Sum256([]byte("abc")), [32]byte(d))
}
