// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package participant

// WindowSize is the number of days a boost window remembers.
const WindowSize = 7

// BoostSlot remembers whether Day was boosted.
type BoostSlot struct {
	Day uint64
	Set bool
}

// BoostWindow is a ring of the most recent days, indexed by day % WindowSize.
// A slot holding an older day reads as not boosted, so the window clears itself as it rolls.
type BoostWindow [WindowSize]BoostSlot

func (w *BoostWindow) IsBoosted(day uint64) bool {
	slot := w[day%WindowSize]
	return slot.Set && slot.Day == day
}

func (w *BoostWindow) Mark(day uint64) {
	w[day%WindowSize] = BoostSlot{Day: day, Set: true}
}

func (w *BoostWindow) Unmark(day uint64) {
	if w.IsBoosted(day) {
		w[day%WindowSize] = BoostSlot{}
	}
}

// View returns the boost flags of the last WindowSize days, oldest first, today last.
func (w *BoostWindow) View(today uint64) [WindowSize]bool {
	var view [WindowSize]bool
	for i := range WindowSize {
		back := uint64(WindowSize - 1 - i)
		if back > today {
			continue
		}
		view[i] = w.IsBoosted(today - back)
	}
	return view
}
