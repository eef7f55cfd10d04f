package beneficiary

import (
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"heritagechain/internal/model"
)

// MaxSimulated is the most beneficiaries a plan can hold: every share is at
// least one basis point of 10000.
const MaxSimulated = 10000

// Simulate produces count placeholder beneficiaries whose percentages sum to
// exactly 100. The remainder of the even split goes to the last entry.
// Addresses are random and must never be used on-chain. Counts outside
// (0, MaxSimulated] produce an empty list.
func Simulate(count int, rng *rand.Rand) []model.Beneficiary {
	if count <= 0 || count > MaxSimulated {
		return []model.Beneficiary{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := 100 / count
	remainder := 100 - base*count

	out := make([]model.Beneficiary, 0, count)
	for i := 0; i < count; i++ {
		share := base
		if i == count-1 {
			share += remainder
		}
		out = append(out, model.Beneficiary{
			Address:    randomAddress(rng),
			Percentage: float64(share),
		})
	}
	return out
}

func randomAddress(rng *rand.Rand) string {
	buf := make([]byte, 20)
	for i := range buf {
		buf[i] = byte(rng.Intn(256))
	}
	return hexutil.Encode(buf)
}
