package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"heritagechain/internal/model"
)

// TxConfig holds configuration for transaction commands.
type TxConfig struct {
	Config
	PrivateKey    string
	Wait          bool
	GasLimit      uint64
	Amount        string
	At            string
	Beneficiaries []string
}

// LoadTx merges config file, environment variables, and flags into TxConfig.
// The private key is read from HERITAGE_PRIVATE_KEY when no flag is given.
func LoadTx(cfgFile string, flags *pflag.FlagSet) (TxConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return TxConfig{}, err
	}
	v.SetDefault("wait", true)
	v.SetDefault("gas-limit", uint64(0))

	return TxConfig{
		Config:        readConfig(v),
		PrivateKey:    strings.TrimSpace(v.GetString("private-key")),
		Wait:          v.GetBool("wait"),
		GasLimit:      v.GetUint64("gas-limit"),
		Amount:        strings.TrimSpace(v.GetString("amount")),
		At:            strings.TrimSpace(v.GetString("at")),
		Beneficiaries: getStringSlice(v, "beneficiary"),
	}, nil
}

// ParseBeneficiaries parses address=percentage pairs, keeping their order.
func ParseBeneficiaries(items []string) ([]model.Beneficiary, error) {
	out := make([]model.Beneficiary, 0, len(items))
	for _, item := range items {
		addr, pct, ok := strings.Cut(item, "=")
		addr = strings.TrimSpace(addr)
		pct = strings.TrimSpace(pct)
		if !ok || addr == "" || pct == "" {
			return nil, fmt.Errorf("invalid beneficiary %q: want address=percentage", item)
		}
		percentage, err := strconv.ParseFloat(strings.TrimSuffix(pct, "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percentage %q: %w", pct, err)
		}
		out = append(out, model.Beneficiary{Address: addr, Percentage: percentage})
	}
	return out, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(val, 0), nil
	}

	return time.Parse(time.RFC3339, input)
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
