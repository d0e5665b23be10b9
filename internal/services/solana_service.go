package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"

	"github.com/BUILDPROJECT222/ConstructSol/utils"
)

var (
	Client *rpc.Client
	// custodian 托管钱包私钥：进程启动时加载一次，之后只读。
	// 绝不能被日志、响应或任何序列化路径碰到。
	custodian     solana.PrivateKey
	custodianPub  solana.PublicKey
	TokenMint     solana.PublicKey
	tokenDecimals uint8
)

// 错误分类。handler 层用 errors.Is 映射到 HTTP 状态码。
var (
	ErrInvalidAddress               = errors.New("invalid address")
	ErrInsufficientCustodialBalance = errors.New("insufficient custodial balance")
	ErrSettlementPreparationFailed  = errors.New("settlement preparation failed")
	ErrTransactionNotFound          = errors.New("transaction not found")
	ErrTransactionFailed            = errors.New("transaction failed")
	ErrUnauthorizedTransaction      = errors.New("unauthorized transaction")
)

// 链上调用以函数变量的形式挂出来，测试里可以替换掉网络部分
var (
	fetchTokenBalance  = rpcTokenBalance
	fetchAccountExists = rpcAccountExists
)

// InitSolana 从配置初始化 RPC 客户端、托管钱包和代币参数。
// store_secret 只支持 base58 格式。
func InitSolana() error {
	rpcURL := viper.GetString("solana.rpc_url")
	if rpcURL == "" {
		return errors.New("solana.rpc_url is empty in config")
	}

	storeSecret := viper.GetString("solana.store_secret")
	if storeSecret == "" {
		return errors.New("solana.store_secret is empty in config")
	}

	tokenMint := viper.GetString("solana.token_mint")
	if tokenMint == "" {
		return errors.New("solana.token_mint is empty in config")
	}

	decimals := viper.GetInt("solana.token_decimals")
	if decimals < 0 || decimals > 18 {
		return errors.New("solana.token_decimals out of range")
	}

	Client = rpc.New(rpcURL)

	pk, err := solana.PrivateKeyFromBase58(storeSecret)
	if err != nil {
		return errors.New("failed to parse store_secret as base58: " + err.Error())
	}
	custodian = pk
	custodianPub = pk.PublicKey()

	mintPub, err := solana.PublicKeyFromBase58(tokenMint)
	if err != nil {
		return errors.New("failed to parse token_mint as base58: " + err.Error())
	}
	TokenMint = mintPub
	tokenDecimals = uint8(decimals)

	return nil
}

// CustodianAddress 返回托管钱包的公钥地址（私钥不外漏）
func CustodianAddress() string {
	if custodianPub.IsZero() {
		return ""
	}
	return custodianPub.String()
}

// TokenDecimals 返回配置的代币精度。构造和校验必须用同一个值，
// 精度不一致会直接改变经济价值，不只是显示问题。
func TokenDecimals() uint8 {
	return tokenDecimals
}

// IsValidWalletAddress 校验完整的规范地址：44 个 base58 字符并能解出 32 字节公钥。
// 纯函数，无 IO。缩写的显示格式（Abcd...wxyz）在这里直接被拒。
func IsValidWalletAddress(s string) bool {
	if len(s) != 44 {
		return false
	}
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}

// ScaleAmount 把整数代币数量按配置精度放大为链上最小单位
func ScaleAmount(whole uint64) uint64 {
	scaled := whole
	for i := uint8(0); i < tokenDecimals; i++ {
		scaled *= 10
	}
	return scaled
}

// ResolveTokenAccount 推导 (owner, mint) 对应的关联代币账户地址。
// 纯推导，同样的输入永远得到同样的地址，不查链。
func ResolveTokenAccount(owner solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, TokenMint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: derive token account: %v", ErrSettlementPreparationFailed, err)
	}
	return ata, nil
}

// rpcAccountExists 查询代币账户是否已创建。
// rpc.ErrNotFound 不是错误：它就是"需要附带建户指令"的信号。
func rpcAccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	_, err := Client.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// rpcTokenBalance 查询代币账户的链上余额（最小单位）
func rpcTokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := Client.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	if out == nil || out.Value == nil {
		return 0, errors.New("empty token balance response")
	}
	return strconv.ParseUint(out.Value.Amount, 10, 64)
}

// newTransferCheckedInstruction 手工构造 SPL Token 的 TransferChecked 指令。
// 指令格式：discriminator 12 + amount (u64 LE) + decimals (u8)。
// 账户顺序：source、mint、destination、owner(签名)。
func newTransferCheckedInstruction(source, destination, owner solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	data := make([]byte, 10)
	data[0] = 12 // TransferChecked
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals

	accounts := solana.AccountMetaSlice{
		{PublicKey: source, IsSigner: false, IsWritable: true},
		{PublicKey: TokenMint, IsSigner: false, IsWritable: false},
		{PublicKey: destination, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}

	return solana.NewInstruction(solana.TokenProgramID, accounts, data)
}

// newCreateTokenAccountInstruction 构造关联代币账户的建户指令，由托管钱包出钱。
// 账户顺序：payer(签名,写)、ata(写)、owner、mint、System Program、Token Program。
func newCreateTokenAccountInstruction(payer, ata, owner solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: TokenMint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, []byte{})
}

// BuildRewardTransferTx 构造托管钱包 -> 玩家的代币转账交易（收获/出售共用）。
// amount 已经是按精度放大后的最小单位。blockhash 由前端提供：前端离提交
// 时间更近，服务端取的反而更容易过期。
//
// 返回部分签名（只有托管钱包签了）的 base64 交易，玩家作为 fee payer
// 在前端补签后自行提交。本函数没有任何持久化副作用，失败整单重试即可。
func BuildRewardTransferTx(ctx context.Context, recipient string, amount uint64, blockhash string) (string, error) {
	if !IsValidWalletAddress(recipient) {
		return "", ErrInvalidAddress
	}
	recipientPub := solana.MustPublicKeyFromBase58(recipient)

	recentBlockhash, err := solana.HashFromBase58(blockhash)
	if err != nil {
		return "", fmt.Errorf("%w: bad blockhash: %v", ErrSettlementPreparationFailed, err)
	}

	custodialAccount, err := ResolveTokenAccount(custodianPub)
	if err != nil {
		return "", err
	}
	recipientAccount, err := ResolveTokenAccount(recipientPub)
	if err != nil {
		return "", err
	}

	// 出账方向：先确认托管账户余额够付，不够就不构造交易
	balance, err := fetchTokenBalance(ctx, custodialAccount)
	if err != nil {
		return "", fmt.Errorf("%w: custodial balance check: %v", ErrSettlementPreparationFailed, err)
	}
	if balance < amount {
		return "", fmt.Errorf("%w: have %d, need %d", ErrInsufficientCustodialBalance, balance, amount)
	}

	var instructions []solana.Instruction

	// 收款方还没有代币账户时，由托管钱包出钱先建户，建户指令必须排在转账前
	exists, err := fetchAccountExists(ctx, recipientAccount)
	if err != nil {
		return "", fmt.Errorf("%w: recipient account lookup: %v", ErrSettlementPreparationFailed, err)
	}
	if !exists {
		instructions = append(instructions, newCreateTokenAccountInstruction(custodianPub, recipientAccount, recipientPub))
	}

	instructions = append(instructions,
		newTransferCheckedInstruction(custodialAccount, recipientAccount, custodianPub, amount, tokenDecimals))

	// fee payer 是玩家：玩家补签的那笔签名同时覆盖网络费
	tx, err := solana.NewTransaction(
		instructions,
		recentBlockhash,
		solana.TransactionPayer(recipientPub),
	)
	if err != nil {
		return "", fmt.Errorf("%w: build transaction: %v", ErrSettlementPreparationFailed, err)
	}

	// 只签托管钱包这一方，玩家的签名位留空
	_, err = tx.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(custodianPub) {
			return &custodian
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: partial sign: %v", ErrSettlementPreparationFailed, err)
	}

	encoded, err := utils.EncodeBase64Tx(tx)
	if err != nil {
		return "", fmt.Errorf("%w: serialize: %v", ErrSettlementPreparationFailed, err)
	}
	return encoded, nil
}
