package rpcnode

import (
	"context"
	"os"
	"testing"

	"github.com/bitcoinchain/blockimporter/bitcoin"
)

// ManualTestNode exercises a real node. It has no Test prefix, so go test
// does not pick it up; when run, it skips unless RPC_HOST is set. It reads:
//
//	RPC_HOST
//	RPC_USERNAME
//	RPC_PASSWORD
func ManualTestNode(test *testing.T) {
	if os.Getenv("RPC_HOST") == "" {
		test.Skip("RPC_HOST not set")
	}

	ctx := context.Background()

	config := &Config{
		Host:     os.Getenv("RPC_HOST"),
		Username: os.Getenv("RPC_USERNAME"),
		Password: os.Getenv("RPC_PASSWORD"),
	}

	node, err := NewNode(config)
	if err != nil {
		test.Fatalf("Failed to create node : %s", err.Error())
	}

	hash, height, err := node.GetLatestBlock(ctx)
	if err != nil {
		test.Fatalf("Failed to get latest block : %s", err.Error())
	}
	test.Logf("Latest block : %s at height %d", hash.String(), height)
}

const testHash = "1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"

func Test_MockRpcNode_GetLatestBlock(t *testing.T) {
	ctx := context.Background()
	mock := NewMockRpcNode()

	hash, err := bitcoin.NewHash32FromStr(testHash)
	if err != nil {
		t.Fatalf("NewHash32FromStr: %s", err)
	}
	mock.SetTip(*hash, 700000)

	gotHash, gotHeight, err := mock.GetLatestBlock(ctx)
	if err != nil {
		t.Fatalf("GetLatestBlock: %s", err)
	}
	if !gotHash.Equal(hash) {
		t.Errorf("GetLatestBlock() hash = %s, want %s", gotHash, hash)
	}
	if gotHeight != 700000 {
		t.Errorf("GetLatestBlock() height = %d, want 700000", gotHeight)
	}
}

func Test_MockRpcNode_GetBlockHeader_NotFound(t *testing.T) {
	ctx := context.Background()
	mock := NewMockRpcNode()

	hash, err := bitcoin.NewHash32FromStr(testHash)
	if err != nil {
		t.Fatalf("NewHash32FromStr: %s", err)
	}

	if _, err := mock.GetBlockHeader(ctx, hash); err == nil {
		t.Fatalf("GetBlockHeader() expected error for unknown hash")
	}
}
