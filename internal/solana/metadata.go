package solana

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// MetaplexProgramID is the Metaplex Token Metadata program.
const MetaplexProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

// ErrNoMetadata is returned when a mint has no readable Metaplex metadata account.
var ErrNoMetadata = errors.New("no token metadata")

// TokenMetadata is the name and symbol stored in a Metaplex metadata account.
type TokenMetadata struct {
	Mint   string
	Name   string
	Symbol string
}

// MetadataResolver reads on-chain token names for mints discovered without one.
type MetadataResolver struct {
	rpc RPCClient
}

// NewMetadataResolver creates a MetadataResolver.
func NewMetadataResolver(rpc RPCClient) *MetadataResolver {
	return &MetadataResolver{rpc: rpc}
}

// Resolve fetches and parses the metadata account of mint.
func (r *MetadataResolver) Resolve(ctx context.Context, mint string) (*TokenMetadata, error) {
	pda, err := MetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	info, err := r.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("get metadata account %s: %w", pda, err)
	}
	if info == nil || info.Data == "" {
		return nil, ErrNoMetadata
	}

	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata account: %w", err)
	}
	name, symbol, err := parseMetadata(data)
	if err != nil {
		return nil, err
	}
	return &TokenMetadata{Mint: mint, Name: name, Symbol: symbol}, nil
}

// MetadataAddress derives the Metaplex metadata PDA for mint.
// Seeds: ["metadata", program_id, mint].
func MetadataAddress(mint string) (string, error) {
	mintKey, err := DecodeAddress(mint)
	if err != nil {
		return "", err
	}
	programKey, err := DecodeAddress(MetaplexProgramID)
	if err != nil {
		return "", err
	}
	return FindProgramAddress([][]byte{[]byte("metadata"), programKey, mintKey}, programKey)
}

// FindProgramAddress returns the first off-curve address for seeds, trying bumps from 255 down.
func FindProgramAddress(seeds [][]byte, programID []byte) (string, error) {
	for bump := 255; bump >= 0; bump-- {
		h := sha256.New()
		for _, s := range seeds {
			h.Write(s)
		}
		h.Write([]byte{byte(bump)})
		h.Write(programID)
		h.Write([]byte("ProgramDerivedAddress"))
		sum := h.Sum(nil)

		if !IsOnCurve(sum) {
			return base58.Encode(sum), nil
		}
	}
	return "", fmt.Errorf("no viable bump seed")
}

// parseMetadata reads name and symbol from a MetadataV1 account.
// Layout: key u8 | update authority [32] | mint [32] | name borsh string | symbol borsh string | ...
func parseMetadata(data []byte) (string, string, error) {
	const metadataV1Key = 4
	if len(data) < 69 || data[0] != metadataV1Key {
		return "", "", ErrNoMetadata
	}

	offset := 65
	name, offset, err := readBorshString(data, offset, 64)
	if err != nil {
		return "", "", err
	}
	symbol, _, err := readBorshString(data, offset, 16)
	if err != nil {
		return "", "", err
	}
	return name, symbol, nil
}

func readBorshString(data []byte, offset, maxLen int) (string, int, error) {
	if offset+4 > len(data) {
		return "", offset, ErrNoMetadata
	}
	n := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if n > maxLen || offset+n > len(data) {
		return "", offset, ErrNoMetadata
	}
	s := strings.TrimRight(string(data[offset:offset+n]), "\x00 ")
	return s, offset + n, nil
}
