package ligaledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/ligatools/ligaledger/date"
)

// League fee rule: every held asset costs a flat base amount plus a
// percentage of its market value, per day.
const SalaryBase = 500

// DefaultFeeRate is the value-dependent part of the daily fee (0.1%).
var DefaultFeeRate = decimal.RequireFromString("0.001")

// SystemManager is the computer-controlled account that owns every unowned
// asset. It carries no fee liability and is excluded from reported rosters.
const SystemManager ManagerID = 1

// FeeTotal is a manager's accumulated fee liability. Unvalued counts the
// asset-days for which no market value could be resolved: the base fee still
// accrued, but the value-dependent part is unknown rather than zero, and
// callers must be able to tell the difference.
type FeeTotal struct {
	Amount   int64
	Unvalued int
}

// add accumulates the fee of one asset-day.
func (f *FeeTotal) add(base int64, rate decimal.Decimal, value int64, known bool) {
	f.Amount += base
	if !known {
		f.Unvalued++
		return
	}
	f.Amount += rate.Mul(decimal.NewFromInt(value)).IntPart()
}

// SalaryParams configures the fee computation.
type SalaryParams struct {
	BaseFee    int64           // flat per-asset amount, default SalaryBase
	Rate       decimal.Decimal // value-dependent rate, default DefaultFeeRate
	CutoffHour int             // settlement boundary, default DefaultCutoffHour
	System     ManagerID       // fee-exempt system account, default SystemManager
}

// withDefaults fills zero fields.
func (p SalaryParams) withDefaults() SalaryParams {
	if p.BaseFee == 0 {
		p.BaseFee = SalaryBase
	}
	if p.Rate.IsZero() {
		p.Rate = DefaultFeeRate
	}
	if p.CutoffHour == 0 {
		p.CutoffHour = DefaultCutoffHour
	}
	if p.System == 0 {
		p.System = SystemManager
	}
	return p
}

// ComputeSalaryLedger accumulates every manager's fee liability across the
// given fee-active days.
//
// A debit observed on day d pays for day d-1: the roster is reconstructed as
// it stood at the cutoff boundary of d, while the valuation is taken on d-1,
// the day the fee accrued. The system manager is skipped entirely.
func ComputeSalaryLedger(snap *Snapshot, events []TransferEvent, feeDays []date.Date, vals *Valuations, params SalaryParams) map[ManagerID]FeeTotal {
	params = params.withDefaults()

	days := slices.Clone(feeDays)
	slices.SortFunc(days, date.Date.Compare)

	ledger := make(map[ManagerID]FeeTotal)
	for _, d := range days {
		rosters := snap.RosterAtCutoff(events, d, params.CutoffHour)
		accrued := d.Add(-1) // the fee pays for the previous day
		for m, assets := range rosters {
			if m == params.System {
				continue
			}
			total := ledger[m]
			for asset := range assets {
				value, ok := vals.ValueOn(asset, accrued)
				total.add(params.BaseFee, params.Rate, value, ok)
			}
			ledger[m] = total
		}
	}
	return ledger
}

// ComputeDailySalary returns the fee each manager would owe for holding
// their end-of-day roster on the given day, valued on that same day. This is
// the "salary today" figure: current display, not a settled debit.
func ComputeDailySalary(snap *Snapshot, events []TransferEvent, on date.Date, vals *Valuations, params SalaryParams) map[ManagerID]FeeTotal {
	params = params.withDefaults()

	out := make(map[ManagerID]FeeTotal)
	for m, assets := range snap.RosterAt(events, on) {
		if m == params.System {
			continue
		}
		var total FeeTotal
		for asset := range assets {
			value, ok := vals.ValueOn(asset, on)
			total.add(params.BaseFee, params.Rate, value, ok)
		}
		out[m] = total
	}
	return out
}
