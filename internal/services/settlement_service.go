package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// verifyTimeout confirmed 级别的交易查询超时。超时按"还没查到"处理（可重试），
// 不能按"交易失败"处理：同一个签名重试正好是超时的正确恢复动作。
const verifyTimeout = 30 * time.Second

var fetchTransaction = rpcFetchTransaction

func rpcFetchTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	return Client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
}

// VerifySettlement 校验玩家上报的交易签名确实对应一笔已执行、
// 且经过托管账户的链上交易。校验全部通过才允许入账，绝不先记账后验证。
//
// 失败分类：
//   - 查不到 / 超时        -> ErrTransactionNotFound（可重试）
//   - 链上执行失败          -> ErrTransactionFailed（终态）
//   - 与托管账户无关         -> ErrUnauthorizedTransaction（终态，视为伪造的入账请求）
func VerifySettlement(ctx context.Context, signature string) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		// 格式不对的签名链上永远查不到，归入 not found
		return fmt.Errorf("%w: malformed signature", ErrTransactionNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	out, err := fetchTransaction(ctx, sig)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTransactionNotFound, err)
		}
		// 其他 RPC 故障也按可重试处理，签名可能只是还没传播开
		return fmt.Errorf("%w: %v", ErrTransactionNotFound, err)
	}
	if out == nil {
		return ErrTransactionNotFound
	}

	decoded, err := out.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("%w: decode: %v", ErrTransactionFailed, err)
	}

	return classifySettlementTx(out.Meta, decoded.Message.AccountKeys, custodianPub)
}

// classifySettlementTx 对已取回的交易做纯判定（无 IO，便于单测）：
// 执行必须成功、必须消耗了计算单元、参与账户里必须出现托管账户。
func classifySettlementTx(meta *rpc.TransactionMeta, accountKeys []solana.PublicKey, custodial solana.PublicKey) error {
	if meta == nil {
		return fmt.Errorf("%w: missing transaction meta", ErrTransactionFailed)
	}
	if meta.Err != nil {
		return fmt.Errorf("%w: on-chain error: %v", ErrTransactionFailed, meta.Err)
	}
	if meta.ComputeUnitsConsumed == nil || *meta.ComputeUnitsConsumed == 0 {
		return fmt.Errorf("%w: no compute units consumed", ErrTransactionFailed)
	}

	for _, key := range accountKeys {
		if key.Equals(custodial) {
			return nil
		}
	}
	// 交易存在但和本服务无关：引用别人的交易骗奖励
	return ErrUnauthorizedTransaction
}
