package draft

// RosterSize is the number of castaways each member drafts.
const RosterSize = 2

// TotalPicks returns the number of picks a full draft produces.
func TotalPicks(totalMembers int) int {
	return totalMembers * RosterSize
}

// ComputeTurn derives the 1-based round and the 0-based index into the draft
// order for a given 0-based overall pick number. Odd rounds run forward
// through the order, even rounds run backward (snake draft).
//
// Calling this with totalMembers < 1 or pickNumber < 0 is a contract
// violation by the caller, not a recoverable condition.
func ComputeTurn(pickNumber, totalMembers int) (round, pickerIndex int) {
	if totalMembers < 1 {
		panic("draft: ComputeTurn requires at least one member")
	}
	if pickNumber < 0 {
		panic("draft: ComputeTurn requires a non-negative pick number")
	}

	round = pickNumber/totalMembers + 1
	offset := pickNumber % totalMembers
	if round%2 == 1 {
		pickerIndex = offset
	} else {
		pickerIndex = totalMembers - 1 - offset
	}
	return round, pickerIndex
}
