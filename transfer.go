package ligaledger

import (
	"time"

	"github.com/ligatools/ligaledger/date"
)

// TransferEvent records one asset changing hands at one instant. Events are
// immutable facts produced by the feed adapter.
//
// The provider does not define an order among events sharing a timestamp,
// so the adapter assigns Seq in retrieval order and (Time, Seq) is the total
// order every replay uses. See the reconstruction engine.
type TransferEvent struct {
	Time  time.Time `json:"time"`
	Seq   int       `json:"seq"`
	From  ManagerID `json:"from"`
	To    ManagerID `json:"to"`
	Asset AssetID   `json:"asset"`
}

// Day returns the calendar day of the event, with no settlement adjustment.
func (e TransferEvent) Day() date.Date { return date.Of(e.Time) }

// compareEvents orders events by (time, seq) ascending.
func compareEvents(a, b TransferEvent) int {
	if c := a.Time.Compare(b.Time); c != 0 {
		return c
	}
	return a.Seq - b.Seq
}

// Delta is a signed money movement attributed to one manager: positive when
// selling (money in), negative when buying or paying fees (money out).
type Delta struct {
	Manager ManagerID `json:"manager"`
	Amount  int64     `json:"amount"`
}
