package receipt

import (
	"encoding/json"
	"strconv"
	"strings"

	perr "zaplens/internal/platform/errors"

	"github.com/shopspring/decimal"
)

var (
	msatPerBTC = decimal.New(1, 11)
	thousand   = decimal.New(1, 3)

	// bolt11 amount multipliers, as fractions of one bitcoin
	multipliers = map[byte]decimal.Decimal{
		'm': decimal.New(1, -3),
		'u': decimal.New(1, -6),
		'n': decimal.New(1, -9),
		'p': decimal.New(1, -12),
	}
)

// zapRequest is the subset of the embedded kind 9734 request we read
type zapRequest struct {
	PubKey  string     `json:"pubkey"`
	Kind    int        `json:"kind"`
	Tags    [][]string `json:"tags"`
	Content string     `json:"content"`
}

func parseZapRequest(description string) (zapRequest, bool) {
	var zr zapRequest
	if strings.TrimSpace(description) == "" {
		return zr, false
	}
	if err := json.Unmarshal([]byte(description), &zr); err != nil {
		return zr, false
	}
	return zr, true
}

// requestedSats reads the zap request amount tag (millisats) and floors it to sats
func (zr zapRequest) requestedSats() int64 {
	raw := firstTag(zr.Tags, "amount")
	if raw == "" {
		return 0
	}
	msat, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || msat <= 0 {
		return 0
	}
	return msat / 1000
}

// Bolt11Sats decodes the amount encoded in a bolt11 invoice human readable part.
// Invoices without an amount, or with an unknown network or multiplier, fail
func Bolt11Sats(invoice string) (int64, error) {
	inv := strings.ToLower(strings.TrimSpace(invoice))
	if !strings.HasPrefix(inv, "ln") {
		return 0, perr.InvalidArgf("bolt11: missing ln prefix")
	}
	sep := strings.LastIndexByte(inv, '1')
	if sep < 0 {
		return 0, perr.InvalidArgf("bolt11: missing separator")
	}
	hrp := inv[2:sep]

	// network prefix is the leading letters (bc, tb, tbs, bcrt, sb)
	i := 0
	for i < len(hrp) && hrp[i] >= 'a' && hrp[i] <= 'z' {
		i++
	}
	if i == 0 {
		return 0, perr.InvalidArgf("bolt11: missing network")
	}
	amt := hrp[i:]
	if amt == "" {
		return 0, perr.InvalidArgf("bolt11: no amount")
	}

	mult := decimal.NewFromInt(1)
	if last := amt[len(amt)-1]; last < '0' || last > '9' {
		m, ok := multipliers[last]
		if !ok {
			return 0, perr.InvalidArgf("bolt11: unknown multiplier %q", string(last))
		}
		mult = m
		amt = amt[:len(amt)-1]
	}
	n, err := decimal.NewFromString(amt)
	if err != nil || !n.IsInteger() || n.Sign() <= 0 {
		return 0, perr.InvalidArgf("bolt11: bad amount %q", amt)
	}

	sats := n.Mul(mult).Mul(msatPerBTC).Div(thousand).Floor()
	if !sats.IsPositive() {
		return 0, perr.InvalidArgf("bolt11: amount below one sat")
	}
	return sats.IntPart(), nil
}
