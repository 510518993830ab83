package config

import (
	"errors"
	"os"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/spalen0/velov2/internal/types"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// GaugeAddress is the gauge's own account identifier. Staked principal,
	// undistributed rewards and captured fees are held under it.
	GaugeAddress string

	// StakeDenom is the staking asset denom.
	StakeDenom string
	// RewardDenom is the reward asset denom.
	RewardDenom string

	// Authority is the distribution authority account. Only this account may
	// fund the reward stream or claim on behalf of other accounts.
	Authority string

	// FeeRecipient is the external fee-distribution recipient account.
	FeeRecipient string

	// IsPair marks the gauge as fee-generating.
	IsPair bool
	// PairToken0 and PairToken1 are the fee legs when IsPair is set.
	PairToken0 string
	PairToken1 string

	// EpochBudget is the amount of reward asset the distributor feeds into
	// the stream at each epoch rollover.
	EpochBudget sdkmath.Int

	// OracleGRPC is the gRPC endpoint of the authorization oracle. Empty
	// means the gauge runs with a static always-authorized oracle.
	OracleGRPC string
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	GaugeAddress, err = getEnv("GAUGE_ADDRESS")
	if err != nil {
		return err
	}

	StakeDenom, err = getEnv("GAUGE_STAKE_DENOM")
	if err != nil {
		return err
	}

	RewardDenom, err = getEnv("GAUGE_REWARD_DENOM")
	if err != nil {
		return err
	}

	Authority, err = getEnv("GAUGE_AUTHORITY")
	if err != nil {
		return err
	}

	FeeRecipient, err = getEnv("GAUGE_FEE_RECIPIENT")
	if err != nil {
		return err
	}

	IsPair, err = getEnvAsBool("GAUGE_IS_PAIR")
	if err != nil {
		return err
	}

	if IsPair {
		PairToken0, err = getEnv("GAUGE_PAIR_TOKEN0")
		if err != nil {
			return err
		}
		PairToken1, err = getEnv("GAUGE_PAIR_TOKEN1")
		if err != nil {
			return err
		}
	}

	EpochBudget, err = getEnvAsInt("GAUGE_EPOCH_BUDGET")
	if err != nil {
		return err
	}

	// Optional: without an oracle endpoint the gauge stays authorized.
	OracleGRPC = os.Getenv("ORACLE_GRPC")

	log.Debug().
		Str("GaugeAddress", GaugeAddress).
		Str("StakeDenom", StakeDenom).
		Str("RewardDenom", RewardDenom).
		Str("Authority", Authority).
		Bool("IsPair", IsPair).
		Msg("Configuration loaded successfully.")

	return nil
}

// GaugeTypesConfig assembles the immutable gauge configuration from the
// loaded globals.
func GaugeTypesConfig() types.GaugeConfig {
	return types.GaugeConfig{
		Address:      GaugeAddress,
		StakeDenom:   StakeDenom,
		RewardDenom:  RewardDenom,
		Authority:    Authority,
		FeeRecipient: FeeRecipient,
		IsPair:       IsPair,
		PairToken0:   PairToken0,
		PairToken1:   PairToken1,
	}
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsBool retrieves an environment variable as a bool. Returns error if not set or invalid.
func getEnvAsBool(key string) (bool, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return false, err
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a valid bool, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt retrieves an environment variable as an sdkmath.Int in base units.
func getEnvAsInt(key string) (sdkmath.Int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	value, ok := sdkmath.NewIntFromString(valueStr)
	if !ok {
		return sdkmath.ZeroInt(), errors.New("environment variable " + key + " must be a valid integer amount, got: " + valueStr)
	}
	return value, nil
}
