package domain

import (
	"math/big"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

var (
	Big0 = big.NewInt(0)
	Big1 = big.NewInt(1)

	// Precision scales cumulativeRewardPerToken so per-second accrual over
	// large supplies keeps enough resolution in integer math.
	Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)

	BasisPointsDivisor = big.NewInt(10000)
)

const SecondsPerYear = 365 * 24 * 60 * 60

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

type ChainId int32

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.ToLower() == EmptyAddress
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

type TxHash string

type BlockNumber uint64

// ParseBig parses a base-10 amount string. Empty strings decode as zero so
// documents created before a field existed stay readable.
func ParseBig(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, xerrors.Errorf("invalid number %q: %w", s, ErrInvalidNumberFormat)
	}
	return n, nil
}

func FormatBig(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// ExpandDecimals returns n * 10^decimals.
func ExpandDecimals(n int64, decimals int64) *big.Int {
	e := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return e.Mul(e, big.NewInt(n))
}

func ToBigInt(nums []string) ([]*big.Int, error) {
	var bns []*big.Int
	for _, n := range nums {
		bn, err := ParseBig(n)
		if err != nil {
			return nil, err
		}
		bns = append(bns, bn)
	}
	return bns, nil
}

// Clock supplies the ledger time. Accrual math never calls time.Now directly
// so tests can replay the reference scenarios deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
