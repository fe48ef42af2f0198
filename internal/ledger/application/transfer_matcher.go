package application

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/drewzeee/WealthVue-sub001/internal/ledger/domain"
)

// transferDateToleranceDays is the maximum calendar-day gap between the two
// legs of an internal transfer. Two days covers the usual settlement lag
// between the outgoing and incoming side.
const transferDateToleranceDays = 2

// TransferPair holds the two transaction IDs of one matched internal
// transfer.
type TransferPair struct {
	First  uuid.UUID
	Second uuid.UUID
}

// PairTransfers greedily pairs transactions that represent the two sides of
// one internal movement of money: different accounts, equal and opposite
// amounts, dates within the tolerance window. All input transactions must
// belong to one user; the caller scopes the query. Each transaction is
// consumed by at most one pair. The result is deterministic: candidates are
// taken in date order (creation time as tie-break) and the closest-dated
// partner wins, then the earliest-created.
func PairTransfers(transactions []domain.Transaction) []TransferPair {
	ordered := make([]domain.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	consumed := make(map[uuid.UUID]bool, len(ordered))
	var pairs []TransferPair

	for i, transaction := range ordered {
		if consumed[transaction.ID] {
			continue
		}
		bestIndex := -1
		for j := i + 1; j < len(ordered); j++ {
			candidate := ordered[j]
			if consumed[candidate.ID] {
				continue
			}
			if candidate.AccountID == transaction.AccountID {
				continue
			}
			if !candidate.Amount.Equal(transaction.Amount.Neg()) {
				continue
			}
			if dayGap(transaction.Date, candidate.Date) > transferDateToleranceDays {
				continue
			}
			if bestIndex == -1 || closerPartner(transaction, ordered[j], ordered[bestIndex]) {
				bestIndex = j
			}
		}
		if bestIndex >= 0 {
			consumed[transaction.ID] = true
			consumed[ordered[bestIndex].ID] = true
			pairs = append(pairs, TransferPair{First: transaction.ID, Second: ordered[bestIndex].ID})
		}
	}
	return pairs
}

// closerPartner reports whether candidate beats current as the partner for
// transaction: closest date first, then lowest absolute amount difference
// (zero by construction, kept for robustness), then earliest created.
func closerPartner(transaction, candidate, current domain.Transaction) bool {
	candidateGap := dayGap(transaction.Date, candidate.Date)
	currentGap := dayGap(transaction.Date, current.Date)
	if candidateGap != currentGap {
		return candidateGap < currentGap
	}
	candidateDelta := transaction.Amount.Abs().Sub(candidate.Amount.Abs()).Abs()
	currentDelta := transaction.Amount.Abs().Sub(current.Amount.Abs()).Abs()
	if !candidateDelta.Equal(currentDelta) {
		return candidateDelta.LessThan(currentDelta)
	}
	return candidate.CreatedAt.Before(current.CreatedAt)
}

// dayGap returns the absolute distance between two dates in whole calendar
// days, ignoring time-of-day.
func dayGap(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	gap := int(aDay.Sub(bDay).Hours() / 24)
	if gap < 0 {
		gap = -gap
	}
	return gap
}
