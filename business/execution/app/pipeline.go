// Package app contains the execution pipeline.
package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbitrageDomain "github.com/flasharb/flasharb-bot/business/arbitrage/domain"
	blockchainApp "github.com/flasharb/flasharb-bot/business/blockchain/app"
	"github.com/flasharb/flasharb-bot/business/execution/domain"
	"github.com/flasharb/flasharb-bot/business/execution/infra/contract"
	"github.com/flasharb/flasharb-bot/business/execution/infra/relay"
	"github.com/flasharb/flasharb-bot/internal/apperror"
	"github.com/flasharb/flasharb-bot/internal/config"
	"github.com/flasharb/flasharb-bot/internal/logger"
	"github.com/flasharb/flasharb-bot/internal/token"
)

const (
	tracerName = "execution"
	meterName  = "execution"

	// maxOpportunityAgeMs rejects stale candidates at preflight.
	maxOpportunityAgeMs = 5_000

	// balanceFloorWei is the minimum signer balance: 0.01 ETH.
	balanceFloorWei = 10_000_000_000_000_000

	// blockTime approximates one block on this chain.
	blockTime = 2 * time.Second

	// publicWaitBlocks bounds the public-path receipt wait.
	publicWaitBlocks = 15

	// shutdownGrace bounds the wait for an in-flight trade on Stop.
	shutdownGrace = 30 * time.Second
)

// Bookkeeper receives terminal trade outcomes; implemented by the risk
// controller. Record calls arrive in on-chain confirmation order.
type Bookkeeper interface {
	Record(netProfitWei, gasCostWei *big.Int)
}

// Advisor supplies the MEV bidding recommendation; nil-able.
type Advisor interface {
	RecommendPrivate() bool
}

type pipelineMetrics struct {
	submissions  metric.Int64Counter
	outcomes     metric.Int64Counter
	privateUsed  metric.Int64Counter
	publicUsed   metric.Int64Counter
	inclusionLag metric.Float64Histogram
}

// Pipeline drives one opportunity at a time through preflight,
// simulation, submission and receipt handling. Sequential execution
// preserves nonce monotonicity: at most one in-flight transaction per
// signer at any instant.
type Pipeline struct {
	client  *ethclient.Client
	signer  *relay.Signer
	encoder *contract.Encoder
	relay   *relay.Client // nil when the private path is disabled
	oracle  *blockchainApp.GasOracle
	tokens  *token.Registry
	books   Bookkeeper
	advisor Advisor
	cfg     config.Config
	logger  logger.LoggerInterface

	inFlight atomic.Bool
	stopped  atomic.Bool
	wg       sync.WaitGroup

	tracer  trace.Tracer
	metrics *pipelineMetrics
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	client *ethclient.Client,
	signer *relay.Signer,
	encoder *contract.Encoder,
	relayClient *relay.Client,
	oracle *blockchainApp.GasOracle,
	tokens *token.Registry,
	books Bookkeeper,
	advisor Advisor,
	cfg config.Config,
	log logger.LoggerInterface,
) (*Pipeline, error) {
	p := &Pipeline{
		client:  client,
		signer:  signer,
		encoder: encoder,
		relay:   relayClient,
		oracle:  oracle,
		tokens:  tokens,
		books:   books,
		advisor: advisor,
		cfg:     cfg,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return p, nil
}

func (p *Pipeline) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &pipelineMetrics{}

	p.metrics.submissions, err = meter.Int64Counter(
		"exec_submissions_total",
		metric.WithDescription("Transactions submitted"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	p.metrics.outcomes, err = meter.Int64Counter(
		"exec_outcomes_total",
		metric.WithDescription("Terminal pipeline outcomes by state"),
		metric.WithUnit("{outcome}"),
	)
	if err != nil {
		return err
	}

	p.metrics.privateUsed, err = meter.Int64Counter(
		"exec_private_relay_total",
		metric.WithDescription("Private relay submissions"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	p.metrics.publicUsed, err = meter.Int64Counter(
		"exec_public_fallback_total",
		metric.WithDescription("Public mempool submissions"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	p.metrics.inclusionLag, err = meter.Float64Histogram(
		"exec_inclusion_lag_ms",
		metric.WithDescription("Submission-to-receipt latency"),
		metric.WithUnit("ms"),
	)
	return err
}

// Execute drives opp to a terminal state and books the outcome.
func (p *Pipeline) Execute(ctx context.Context, opp *arbitrageDomain.Opportunity) *domain.Result {
	ctx, span := p.tracer.Start(ctx, "execution.execute",
		trace.WithAttributes(
			attribute.String("kind", string(opp.Kind)),
			attribute.String("pair", opp.Pair),
		),
	)
	defer span.End()

	if p.stopped.Load() {
		return p.finish(ctx, opp, &domain.Result{State: domain.StateRejected, Reason: "pipeline stopped"})
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return p.finish(ctx, opp, &domain.Result{State: domain.StateRejected, Reason: "another trade in flight"})
	}
	p.wg.Add(1)
	defer func() {
		p.inFlight.Store(false)
		p.wg.Done()
	}()

	result := p.run(ctx, opp)
	return p.finish(ctx, opp, result)
}

func (p *Pipeline) run(ctx context.Context, opp *arbitrageDomain.Opportunity) *domain.Result {
	// PREFLIGHT
	if reason := p.preflight(ctx, opp); reason != "" {
		return &domain.Result{State: domain.StateRejected, Reason: reason}
	}

	// ENCODE
	minProfit := p.minProfitAmount(opp)
	calldata, err := p.encoder.EncodeExecute(opp, minProfit)
	if err != nil {
		return &domain.Result{State: domain.StateRejected, Reason: fmt.Sprintf("encode: %v", err)}
	}

	// SIMULATE
	if reason := p.simulate(ctx, calldata); reason != "" {
		return &domain.Result{State: domain.StateRejected, Reason: reason}
	}

	// BUILD_TX
	tx, err := p.buildTx(ctx, opp, calldata)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeNonceConflict) {
			p.signer.ResetNonce()
			return &domain.Result{State: domain.StateStale, Reason: err.Error()}
		}
		return &domain.Result{State: domain.StateRejected, Reason: err.Error()}
	}

	// SUBMIT_PRIVATE → WAIT, falling back to SUBMIT_PUBLIC → WAIT.
	return p.submit(ctx, tx)
}

// preflight returns a rejection reason, empty when the trade may proceed.
func (p *Pipeline) preflight(ctx context.Context, opp *arbitrageDomain.Opportunity) string {
	if opp.AgeMs(time.Now().UnixMilli()) > maxOpportunityAgeMs {
		return "opportunity too old"
	}

	gas := p.oracle.CurrentGas()
	if gas.MaxFeeGwei() > p.cfg.Trading.MaxGasPriceGwei {
		return fmt.Sprintf("gas %.3f gwei above ceiling %.3f", gas.MaxFeeGwei(), p.cfg.Trading.MaxGasPriceGwei)
	}

	pausedData, err := p.encoder.EncodePaused()
	if err == nil {
		to := p.cfg.Signer.ContractAddressHex()
		out, callErr := p.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: pausedData}, nil)
		if callErr == nil {
			if paused, decErr := p.encoder.DecodePaused(out); decErr == nil && paused {
				return "contract paused"
			}
		}
	}

	balance, err := p.client.BalanceAt(ctx, p.signer.Address(), nil)
	if err != nil {
		return fmt.Sprintf("balance read failed: %v", err)
	}
	if balance.Cmp(big.NewInt(balanceFloorWei)) < 0 {
		return "signer balance below 0.01 ETH floor"
	}

	return ""
}

// minProfitAmount is the on-chain profitability floor: the flash fee
// plus one basis point of the borrow.
func (p *Pipeline) minProfitAmount(opp *arbitrageDomain.Opportunity) *big.Int {
	fee := new(big.Int).Mul(opp.BorrowAmount, big.NewInt(p.cfg.Trading.FlashPremiumBps+1))
	return fee.Div(fee, big.NewInt(10_000))
}

// simulate runs executeArbitrage as a view; any revert reason rejects.
func (p *Pipeline) simulate(ctx context.Context, calldata []byte) string {
	to := p.cfg.Signer.ContractAddressHex()
	from := p.signer.Address()

	_, err := p.client.CallContract(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: calldata,
	}, nil)
	if err != nil {
		return fmt.Sprintf("simulation reverted: %v", err)
	}
	return ""
}

func (p *Pipeline) buildTx(ctx context.Context, opp *arbitrageDomain.Opportunity, calldata []byte) (*types.Transaction, error) {
	nonce, err := p.signer.NextNonce(ctx, p.client)
	if err != nil {
		return nil, err
	}

	urgency := 3
	if p.advisor != nil && p.advisor.RecommendPrivate() {
		urgency = 5
	}
	params := p.oracle.OptimalParams(urgency)

	gasLimit := opp.GasEstimate + opp.GasEstimate/5 // 20% headroom
	if gasLimit == 0 {
		gasLimit = params.GasLimit
	}

	tx, err := p.signer.SignDynamicFee(nonce, p.cfg.Signer.ContractAddressHex(), gasLimit, params.PriorityFee, params.MaxFee, calldata)
	if err != nil {
		return nil, apperror.New(apperror.CodeSubmissionFailed, apperror.WithCause(err))
	}
	return tx, nil
}

// submit tries the private relay for the next block, then falls back to
// the public mempool.
func (p *Pipeline) submit(ctx context.Context, tx *types.Transaction) *domain.Result {
	submittedAt := time.Now()

	usePrivate := p.relay != nil && p.cfg.Relay.Enabled
	if usePrivate {
		head, err := p.client.BlockNumber(ctx)
		if err == nil {
			if err := p.relay.SendBundle(ctx, tx, head+1); err == nil {
				p.metrics.submissions.Add(ctx, 1)
				p.metrics.privateUsed.Add(ctx, 1)
				p.signer.BumpNonce()

				if res := p.wait(ctx, tx, blockTime+blockTime/2, submittedAt); res != nil {
					res.Private = true
					return res
				}
				// Not included within one block: fall through to public.
				p.logger.Debug(ctx, "bundle missed target block, going public", "tx", tx.Hash().Hex())
			} else {
				p.logger.Warn(ctx, "private relay rejected bundle, going public", "error", err)
			}
		}
	}

	if err := p.client.SendTransaction(ctx, tx); err != nil {
		if isNonceError(err) {
			p.signer.ResetNonce()
			return &domain.Result{State: domain.StateStale, Reason: err.Error()}
		}
		if !usePrivate {
			// Private path already bumped; only bump-free failures reset.
			p.signer.ResetNonce()
		}
		return &domain.Result{State: domain.StateRejected, Reason: fmt.Sprintf("submission failed: %v", err)}
	}
	p.metrics.submissions.Add(ctx, 1)
	p.metrics.publicUsed.Add(ctx, 1)
	if !usePrivate {
		p.signer.BumpNonce()
	}

	if res := p.wait(ctx, tx, publicWaitBlocks*blockTime, submittedAt); res != nil {
		return res
	}

	p.signer.ResetNonce()
	return &domain.Result{State: domain.StateStale, Reason: "no receipt before timeout"}
}

// wait polls for the receipt until timeout; nil means not yet included.
func (p *Pipeline) wait(ctx context.Context, tx *types.Transaction, timeout time.Duration, submittedAt time.Time) *domain.Result {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &domain.Result{State: domain.StateStale, Reason: ctx.Err().Error()}
		case <-ticker.C:
			receipt, err := p.client.TransactionReceipt(ctx, tx.Hash())
			if err != nil {
				if time.Now().After(deadline) {
					return nil
				}
				continue
			}

			p.metrics.inclusionLag.Record(ctx, float64(time.Since(submittedAt).Milliseconds()))

			gasCost := new(big.Int).Mul(
				new(big.Int).SetUint64(receipt.GasUsed),
				receipt.EffectiveGasPrice,
			)

			if receipt.Status == types.ReceiptStatusSuccessful {
				return &domain.Result{
					State:      domain.StateConfirmed,
					TxHash:     tx.Hash(),
					GasUsed:    receipt.GasUsed,
					GasCostWei: gasCost,
				}
			}
			return &domain.Result{
				State:      domain.StateReverted,
				Reason:     "on-chain revert",
				TxHash:     tx.Hash(),
				GasUsed:    receipt.GasUsed,
				GasCostWei: gasCost,
			}
		}
	}
}

// finish books the outcome, emits the trade record line and counters.
func (p *Pipeline) finish(ctx context.Context, opp *arbitrageDomain.Opportunity, res *domain.Result) *domain.Result {
	p.metrics.outcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", string(res.State))))

	switch res.State {
	case domain.StateConfirmed:
		res.ProfitWei = p.profitWei(opp.NetProfitUSD)
		p.books.Record(res.ProfitWei, res.GasCostWei)
	case domain.StateReverted:
		// A revert costs the gas and nothing else.
		res.ProfitWei = new(big.Int).Neg(res.GasCostWei)
		p.books.Record(res.ProfitWei, res.GasCostWei)
	}

	if res.State == domain.StateConfirmed || res.State == domain.StateReverted {
		p.logger.Trade(ctx, logger.TradeLine{
			Kind:        string(opp.Kind),
			Pair:        opp.Pair,
			ExpectedUSD: opp.NetProfitUSD.StringFixed(4),
			GasUsed:     res.GasUsed,
			NetUSD:      p.realizedUSD(res).StringFixed(4),
			TxHash:      res.TxHash.Hex(),
		})
	}

	p.logger.Info(ctx, "execution finished",
		"state", string(res.State),
		"kind", string(opp.Kind),
		"pair", opp.Pair,
		"reason", res.Reason,
		"tx", res.TxHash.Hex(),
	)
	return res
}

// profitWei converts the expected USD profit into ETH wei for risk
// accounting.
func (p *Pipeline) profitWei(netUSD decimal.Decimal) *big.Int {
	ethUSD := p.tokens.ETHPriceUSD()
	if ethUSD.IsZero() {
		return new(big.Int)
	}
	return netUSD.Div(ethUSD).Shift(18).BigInt()
}

func (p *Pipeline) realizedUSD(res *domain.Result) decimal.Decimal {
	if res.ProfitWei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(res.ProfitWei, -18).Mul(p.tokens.ETHPriceUSD())
}

// Stop refuses new opportunities and waits for any in-flight trade to
// reach a terminal state, bounded by the shutdown grace period.
func (p *Pipeline) Stop() {
	p.stopped.Store(true)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		p.logger.Warn(context.Background(), "shutdown grace elapsed with trade in flight")
	}
}

// isNonceError classifies nonce gaps and known-transaction conflicts.
func isNonceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "nonce too high") ||
		strings.Contains(msg, "already known") ||
		strings.Contains(msg, "replacement transaction underpriced")
}
