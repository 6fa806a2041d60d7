package chain

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/flasharb/flasharb-bot/business/discovery/domain"
)

// EventSchema selects how a factory's creation events are decoded.
type EventSchema string

const (
	SchemaV3PoolCreated     EventSchema = "v3-pool-created"     // indexed fee retained
	SchemaV2PairCreated     EventSchema = "v2-pair-created"     // fee fixed at 30 bp
	SchemaStablePoolCreated EventSchema = "stable-pool-created" // 5 bp stable / 30 bp volatile
	SchemaTickPoolCreated   EventSchema = "tick-pool-created"   // indexed tick spacing retained
)

// Factory is one factory contract to crawl.
type Factory struct {
	VenueID    string
	VenueKind  domain.VenueKind
	Schema     EventSchema
	Address    common.Address
	StartBlock uint64
	FeeTiers   []int64 // quote-side probe set, where the venue has one
}

// Factories is the venue table for Base mainnet.
var Factories = []Factory{
	{
		VenueID:    "uniswap-v3",
		VenueKind:  domain.VenueV3CL,
		Schema:     SchemaV3PoolCreated,
		Address:    common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD"),
		StartBlock: 1_371_680,
		FeeTiers:   []int64{100, 500, 3000, 10000},
	},
	{
		VenueID:    "sushiswap-v3",
		VenueKind:  domain.VenueV3CL,
		Schema:     SchemaV3PoolCreated,
		Address:    common.HexToAddress("0xc35DADB65012eC5796536bD9864eD8773aBc74C4"),
		StartBlock: 1_759_510,
		FeeTiers:   []int64{100, 500, 3000, 10000},
	},
	{
		VenueID:    "baseswap",
		VenueKind:  domain.VenueV2AMM,
		Schema:     SchemaV2PairCreated,
		Address:    common.HexToAddress("0xFDa619b6d20975be80A10332cD39b9a4b0FAa8BB"),
		StartBlock: 2_059_124,
	},
	{
		VenueID:    "aerodrome",
		VenueKind:  domain.VenueStableCL,
		Schema:     SchemaStablePoolCreated,
		Address:    common.HexToAddress("0x420DD381b31aEf6683db6B902084cB0FFECe40Da"),
		StartBlock: 3_200_559,
	},
	{
		VenueID:    "aerodrome-slipstream",
		VenueKind:  domain.VenueStableCL,
		Schema:     SchemaTickPoolCreated,
		Address:    common.HexToAddress("0x5e7BB104d84c7CB9B682AaC2F3d509f5F406809A"),
		StartBlock: 13_843_704,
		FeeTiers:   []int64{1, 50, 100, 200, 2000},
	},
}

const (
	feeBpsV2       = 30
	feeBpsStable   = 5
	feeBpsVolatile = 30
)
