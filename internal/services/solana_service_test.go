package services

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/BUILDPROJECT222/ConstructSol/utils"
)

// newTestWallet 生成一个 44 字符地址的钱包（个别公钥会编码成 43 字符，跳过）
func newTestWallet(t *testing.T) *solana.Wallet {
	t.Helper()
	for i := 0; i < 64; i++ {
		w := solana.NewWallet()
		if len(w.PublicKey().String()) == 44 {
			return w
		}
	}
	t.Fatal("无法生成 44 字符地址")
	return nil
}

// initTestSolana 用生成的托管钱包和 mint 初始化 services 包（不发任何网络请求）
func initTestSolana(t *testing.T) {
	t.Helper()

	store := newTestWallet(t)
	mint := newTestWallet(t)

	viper.Set("solana.rpc_url", "http://127.0.0.1:8899")
	viper.Set("solana.store_secret", store.PrivateKey.String())
	viper.Set("solana.token_mint", mint.PublicKey().String())
	viper.Set("solana.token_decimals", 6)

	require.NoError(t, InitSolana())

	origBalance, origExists := fetchTokenBalance, fetchAccountExists
	t.Cleanup(func() {
		fetchTokenBalance, fetchAccountExists = origBalance, origExists
	})
}

func TestIsValidWalletAddress(t *testing.T) {
	initTestSolana(t)

	valid := newTestWallet(t).PublicKey().String()
	require.Len(t, valid, 44)
	require.True(t, IsValidWalletAddress(valid))

	// 43 字符
	require.False(t, IsValidWalletAddress(valid[:43]))
	// 45 字符
	require.False(t, IsValidWalletAddress(valid+"1"))
	// 44 字符但含非 base58 字符（0 不在字母表里）
	require.False(t, IsValidWalletAddress(valid[:43]+"0"))
	// 缩写显示格式
	require.False(t, IsValidWalletAddress(valid[:4]+"..."+valid[40:]))
	require.False(t, IsValidWalletAddress(""))
}

func TestScaleAmount(t *testing.T) {
	initTestSolana(t)

	require.Equal(t, uint64(52500000000), ScaleAmount(52500)) // 52500 × 10^6
	require.Equal(t, uint64(0), ScaleAmount(0))
	require.Equal(t, uint64(1000000), ScaleAmount(1))
}

func TestResolveTokenAccountDeterministic(t *testing.T) {
	initTestSolana(t)

	owner := newTestWallet(t).PublicKey()
	a, err := ResolveTokenAccount(owner)
	require.NoError(t, err)
	b, err := ResolveTokenAccount(owner)
	require.NoError(t, err)
	require.Equal(t, a, b)

	other, err := ResolveTokenAccount(newTestWallet(t).PublicKey())
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestBuildRewardTransferTx(t *testing.T) {
	initTestSolana(t)

	fetchTokenBalance = func(ctx context.Context, account solana.PublicKey) (uint64, error) {
		return 1 << 62, nil
	}
	fetchAccountExists = func(ctx context.Context, account solana.PublicKey) (bool, error) {
		return true, nil
	}

	recipient := newTestWallet(t)
	blockhash := newTestWallet(t).PublicKey().String() // 任意 32 字节 base58 当 blockhash

	amount := ScaleAmount(52500)
	encoded, err := BuildRewardTransferTx(context.Background(), recipient.PublicKey().String(), amount, blockhash)
	require.NoError(t, err)

	tx, err := utils.DecodeBase64Tx(encoded)
	require.NoError(t, err)

	// fee payer 是玩家（账户 0）
	require.Equal(t, recipient.PublicKey(), tx.Message.AccountKeys[0])

	// 只有一条指令：TransferChecked，金额按精度放大
	require.Len(t, tx.Message.Instructions, 1)
	ix := tx.Message.Instructions[0]
	program, err := tx.Message.Program(ix.ProgramIDIndex)
	require.NoError(t, err)
	require.Equal(t, solana.TokenProgramID, program)

	require.Len(t, []byte(ix.Data), 10)
	require.Equal(t, byte(12), ix.Data[0]) // TransferChecked
	require.Equal(t, uint64(52500000000), binary.LittleEndian.Uint64(ix.Data[1:9]))
	require.Equal(t, byte(6), ix.Data[9])

	// 部分签名：玩家的签名位留空，托管钱包已签
	require.Len(t, tx.Signatures, 2)
	require.True(t, tx.Signatures[0].IsZero())
	require.False(t, tx.Signatures[1].IsZero())
}

func TestBuildRewardTransferTxCreatesMissingAccount(t *testing.T) {
	initTestSolana(t)

	fetchTokenBalance = func(ctx context.Context, account solana.PublicKey) (uint64, error) {
		return 1 << 62, nil
	}
	fetchAccountExists = func(ctx context.Context, account solana.PublicKey) (bool, error) {
		return false, nil
	}

	recipient := newTestWallet(t)
	blockhash := newTestWallet(t).PublicKey().String()

	encoded, err := BuildRewardTransferTx(context.Background(), recipient.PublicKey().String(), 1000, blockhash)
	require.NoError(t, err)

	tx, err := utils.DecodeBase64Tx(encoded)
	require.NoError(t, err)

	// 建户指令排在转账前
	require.Len(t, tx.Message.Instructions, 2)
	createProgram, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
	require.NoError(t, err)
	require.Equal(t, solana.SPLAssociatedTokenAccountProgramID, createProgram)

	transferProgram, err := tx.Message.Program(tx.Message.Instructions[1].ProgramIDIndex)
	require.NoError(t, err)
	require.Equal(t, solana.TokenProgramID, transferProgram)
}

func TestBuildRewardTransferTxInsufficientBalance(t *testing.T) {
	initTestSolana(t)

	fetchTokenBalance = func(ctx context.Context, account solana.PublicKey) (uint64, error) {
		return 10, nil
	}
	fetchAccountExists = func(ctx context.Context, account solana.PublicKey) (bool, error) {
		t.Fatal("余额不足时不应继续查收款账户")
		return false, nil
	}

	recipient := newTestWallet(t)
	blockhash := newTestWallet(t).PublicKey().String()

	encoded, err := BuildRewardTransferTx(context.Background(), recipient.PublicKey().String(), 1000, blockhash)
	require.ErrorIs(t, err, ErrInsufficientCustodialBalance)
	require.Empty(t, encoded)
}

func TestBuildRewardTransferTxInvalidRecipient(t *testing.T) {
	initTestSolana(t)

	encoded, err := BuildRewardTransferTx(context.Background(), "short-address", 1000, "")
	require.ErrorIs(t, err, ErrInvalidAddress)
	require.Empty(t, encoded)
}
